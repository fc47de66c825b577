package validator

import "github.com/letsencrypt/certval/core"

// steps collects the optional steps of one validation that failed. A failed
// step is logged, counted and recorded as a Diagnostic; it never fails the
// validation.
type steps struct {
	v           *Validator
	diagnostics []core.Diagnostic
}

func (v *Validator) newSteps() *steps {
	return &steps{v: v}
}

// try runs fn and records its error, if any, under name.
func (s *steps) try(name string, fn func() error) {
	err := fn()
	if err != nil {
		s.degrade(name, err.Error())
	}
}

func (s *steps) degrade(name, msg string) {
	s.v.log.Infof("Validation step %s degraded: %s", name, msg)
	s.v.degraded.WithLabelValues(name).Inc()
	s.diagnostics = append(s.diagnostics, core.Diagnostic{Step: name, Message: msg})
}
