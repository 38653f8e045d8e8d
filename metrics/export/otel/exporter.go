package otel

import (
	"context"
	"errors"
	"fmt"

	authkit "github.com/halcyonsec/authkit"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() authkit.MetricsSnapshot
	AuditDropped() uint64
	MailDropped() uint64
}

type counterDef struct {
	ID   authkit.MetricID
	Name string
	Help string
}

var counterDefs = []counterDef{
	{authkit.MetricLoginSuccess, "authkit_login_success_total", "Completed logins (password and OTP stages both passed)."},
	{authkit.MetricLoginFailure, "authkit_login_failure_total", "Failed password-stage login attempts."},
	{authkit.MetricLoginLocked, "authkit_login_locked_total", "Logins rejected because the account was locked."},
	{authkit.MetricAccountLocked, "authkit_account_locked_total", "Lockouts tripped by reaching the failure threshold."},
	{authkit.MetricRegisterSuccess, "authkit_register_success_total", "Successful registrations."},
	{authkit.MetricRegisterConflict, "authkit_register_conflict_total", "Registrations rejected for a duplicate username or email."},
	{authkit.MetricOTPIssued, "authkit_otp_issued_total", "OTP challenges issued."},
	{authkit.MetricOTPVerified, "authkit_otp_verified_total", "OTP challenges verified."},
	{authkit.MetricOTPFailure, "authkit_otp_failure_total", "OTP verification failures."},
	{authkit.MetricRateLimitDenied, "authkit_rate_limit_denied_total", "Requests denied by the per-client rate gate."},
	{authkit.MetricMailFailed, "authkit_mail_failed_total", "Mail deliveries that returned an error."},
}

type observedCounter struct {
	id         authkit.MetricID
	instrument metric.Int64ObservableCounter
}

type OTelExporter struct {
	source       metricsSource
	registration metric.Registration
	counters     []observedCounter
	auditDropped metric.Int64ObservableCounter
	mailDropped  metric.Int64ObservableCounter
}

func NewOTelExporter(meter metric.Meter, engine *authkit.Engine) (*OTelExporter, error) {
	return NewOTelExporterFromSource(meter, engine)
}

func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	exporter := &OTelExporter{
		source:   source,
		counters: make([]observedCounter, 0, len(counterDefs)),
	}

	observables := make([]metric.Observable, 0, len(counterDefs)+2)

	for _, def := range counterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		exporter.counters = append(exporter.counters, observedCounter{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	auditDropped, err := meter.Int64ObservableCounter(
		"authkit_audit_dropped_total",
		metric.WithDescription("Dropped audit events due to dispatcher backpressure."),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	exporter.auditDropped = auditDropped
	observables = append(observables, auditDropped)

	mailDropped, err := meter.Int64ObservableCounter(
		"authkit_mail_dropped_total",
		metric.WithDescription("Dropped mail jobs due to dispatcher backpressure."),
	)
	if err != nil {
		return nil, fmt.Errorf("create mail dropped counter: %w", err)
	}
	exporter.mailDropped = mailDropped
	observables = append(observables, mailDropped)

	registration, err := meter.RegisterCallback(func(_ context.Context, observer metric.Observer) error {
		snapshot := exporter.source.MetricsSnapshot()
		for _, c := range exporter.counters {
			observer.ObserveInt64(c.instrument, int64(snapshot.Get(c.id)))
		}
		observer.ObserveInt64(exporter.auditDropped, int64(exporter.source.AuditDropped()))
		observer.ObserveInt64(exporter.mailDropped, int64(exporter.source.MailDropped()))
		return nil
	}, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}

	exporter.registration = registration
	return exporter, nil
}

func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
