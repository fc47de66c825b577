package validator

import (
	"fmt"

	blog "github.com/letsencrypt/certval/log"
)

// tailLogger adapts a blog.Logger to the logging interface of nxadm/tail.
// Fatal and Panic messages are audit errors; tail never exits the process
// through it.
type tailLogger struct {
	blog.Logger
}

func (tl tailLogger) Fatal(v ...any)                 { tl.AuditErr(fmt.Sprint(v...)) }
func (tl tailLogger) Fatalf(format string, v ...any) { tl.AuditErrf(format, v...) }
func (tl tailLogger) Fatalln(v ...any)               { tl.AuditErr(fmt.Sprint(v...)) }
func (tl tailLogger) Panic(v ...any)                 { tl.AuditErr(fmt.Sprint(v...)) }
func (tl tailLogger) Panicf(format string, v ...any) { tl.AuditErrf(format, v...) }
func (tl tailLogger) Panicln(v ...any)               { tl.AuditErr(fmt.Sprint(v...)) }
func (tl tailLogger) Print(v ...any)                 { tl.Info(fmt.Sprint(v...)) }
func (tl tailLogger) Printf(format string, v ...any) { tl.Infof(format, v...) }
func (tl tailLogger) Println(v ...any)               { tl.Info(fmt.Sprint(v...)) }
