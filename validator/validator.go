// Package validator asks the remote validation service about a certificate
// and turns its answer into a core.ValidationResult.
package validator

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/letsencrypt/certval/classification"
	"github.com/letsencrypt/certval/core"
	"github.com/letsencrypt/certval/dss"
	berrors "github.com/letsencrypt/certval/errors"
	blog "github.com/letsencrypt/certval/log"
	"github.com/letsencrypt/certval/revocation"
	"github.com/letsencrypt/certval/transport"
)

// Transformer converts request parameters into a service request document
// and a service response document into response parameters.
type Transformer interface {
	MarshalRequest(dss.Parameters) ([]byte, error)
	UnmarshalResponse([]byte) (dss.Parameters, error)
}

// Invoker sends a request document to the service and returns the response
// document. Errors of type ServiceUnavailable are passed through to callers
// unchanged.
type Invoker interface {
	Invoke(ctx context.Context, request []byte, conn transport.ConnectionParams) ([]byte, error)
}

// Config holds the per-application settings of a Validator.
type Config struct {
	// Application is the identity claimed towards the service.
	Application string
	Connection  transport.ConnectionParams
}

// Validator validates certificates against the remote service. It is
// immutable after New and safe for concurrent use.
type Validator struct {
	conf        Config
	transformer Transformer
	invoker     Invoker
	log         blog.Logger

	validations *prometheus.CounterVec
	degraded    *prometheus.CounterVec
}

// New returns a Validator. Metrics are registered with stats.
func New(conf Config, transformer Transformer, invoker Invoker, stats prometheus.Registerer, logger blog.Logger) (*Validator, error) {
	if conf.Application == "" {
		return nil, errors.New("no application identity configured")
	}
	if transformer == nil || invoker == nil {
		return nil, errors.New("a transformer and an invoker are required")
	}

	validations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "certval_validations_total",
		Help: "Completed certificate validations, by outcome",
	}, []string{"outcome"})
	stats.MustRegister(validations)

	degraded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "certval_degraded_steps_total",
		Help: "Optional validation steps that failed and were left out of the result, by step",
	}, []string{"step"})
	stats.MustRegister(degraded)

	return &Validator{
		conf:        conf,
		transformer: transformer,
		invoker:     invoker,
		log:         logger,
		validations: validations,
		degraded:    degraded,
	}, nil
}

// Validate asks the service whether cert is valid. Only the outcome and the
// certificate fields are guaranteed; revocation details, the OCSP response
// artifact and the category are left out when they cannot be determined, and
// a Diagnostic says why. The returned error is always a ServiceUnavailable or
// ServiceError.
//
// extra is reserved and currently ignored.
func (v *Validator) Validate(ctx context.Context, cert *core.Certificate, extra map[string]any) (*core.ValidationResult, error) {
	ctx, span := otel.Tracer("github.com/letsencrypt/certval/validator").Start(ctx, "Validate")
	defer span.End()

	steps := v.newSteps()
	der := v.certificateDER(cert, steps)

	resp, err := v.call(ctx, dss.VerifyRequest(v.conf.Application, der))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation call failed")
		return nil, err
	}
	for _, problem := range resp.Problems {
		steps.degrade("response", problem)
	}

	result := core.NewValidationResult(dss.Outcome(resp.ResultMajor, resp.ResultMinor), resp.ReadableInfo)
	steps.try("revocation", func() error {
		return v.attachRevocation(result, resp)
	})
	steps.try("classification", func() error {
		return v.attachCategory(result, resp)
	})
	result.Diagnostics = steps.diagnostics

	span.SetAttributes(
		attribute.String("certval.outcome", string(result.Outcome)),
		attribute.Int("certval.degraded_steps", len(result.Diagnostics)),
	)
	v.validations.WithLabelValues(string(result.Outcome)).Inc()
	v.log.AuditObject("Certificate validated", validationAudit{
		Issuer:   resp.Issuer(),
		Serial:   resp.SerialNumber(),
		Outcome:  result.Outcome,
		Major:    resp.ResultMajor,
		Minor:    resp.ResultMinor,
		Degraded: len(result.Diagnostics),
	})
	return result, nil
}

// GetData asks the service for the readable fields of cert. The returned map
// is never nil. A response whose major code is not Success is a ServiceError
// carrying the service's message.
//
// extra is reserved and currently ignored.
func (v *Validator) GetData(ctx context.Context, cert *core.Certificate, extra map[string]any) (map[string]string, error) {
	der := v.certificateDER(cert, v.newSteps())
	resp, err := v.call(ctx, dss.DataRequest(v.conf.Application, der))
	if err != nil {
		return nil, err
	}
	if !resp.Success() {
		msg := resp.ResultMessage
		if msg == "" {
			msg = resp.ResultMajor
		}
		return nil, berrors.ServiceErrorError("validation service refused certificate data request: %s", msg)
	}
	return resp.ReadableInfo, nil
}

type validationAudit struct {
	Issuer   string `json:",omitempty"`
	Serial   string `json:",omitempty"`
	Outcome  core.Outcome
	Major    string
	Minor    string `json:",omitempty"`
	Degraded int    `json:",omitempty"`
}

// certificateDER normalizes cert. When that fails the request is still made,
// without the certificate, and the service reports on the missing input.
func (v *Validator) certificateDER(cert *core.Certificate, steps *steps) []byte {
	der, err := cert.DER()
	if err != nil {
		steps.degrade("certificate", err.Error())
		return nil
	}
	return der
}

// call runs one request/response exchange and translates the response.
func (v *Validator) call(ctx context.Context, params dss.Parameters) (*dss.Response, error) {
	request, err := v.transformer.MarshalRequest(params)
	if err != nil {
		return nil, berrors.Wrap(berrors.ServiceError, err, "building validation request")
	}

	raw, err := v.invoker.Invoke(ctx, request, v.conf.Connection)
	if err != nil {
		if berrors.Is(err, berrors.ServiceUnavailable) {
			return nil, err
		}
		return nil, berrors.Wrap(berrors.ServiceError, err, "invoking validation service")
	}

	params, err = v.transformer.UnmarshalResponse(raw)
	if err != nil {
		return nil, berrors.Wrap(berrors.ServiceError, err, "reading validation response")
	}
	return dss.ParseResponse(params)
}

// attachRevocation looks for the path validity record of the certificate
// under test and, when it carries revocation evidence, attaches the OCSP
// response artifact and any revocation details to result.
func (v *Validator) attachRevocation(result *core.ValidationResult, resp *dss.Response) error {
	issuer, serial := resp.Issuer(), resp.SerialNumber()
	if issuer == "" || serial == "" {
		return errors.New("response does not identify the certificate")
	}
	rec, matches := dss.FindEvidence(resp.PathValidity, issuer, serial)
	switch {
	case matches == 0:
		return fmt.Errorf("no path validity record for issuer %q serial %q", issuer, serial)
	case matches > 1:
		v.log.Warningf("%d path validity records for issuer %q serial %q, using the last one", matches, issuer, serial)
	}

	ev, err := revocation.Build(rec)
	if err != nil {
		return err
	}
	result.OCSPResponse = ev.Response
	// Revocation details are only reported alongside a Revoked outcome. Stale
	// evidence under any other outcome still yields the artifact.
	if ev.Revoked() && result.Outcome == core.OutcomeRevoked {
		result.SetRevocation(ev.RevokedAt, ev.Reason)
	}
	return nil
}

func (v *Validator) attachCategory(result *core.ValidationResult, resp *dss.Response) error {
	code, ok, err := resp.ClassificationCode()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	result.SetCategory(code)
	v.log.Debugf("Certificate category %d (%s)", code, classification.CategoryOf(code))
	return nil
}
