// Package audit provides security audit logging for SIEM consumption.
// It logs security-relevant events in structured JSON format for easy parsing
// and integration with security information and event management systems.
package audit

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-listings/pkg/logging"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventSQLInjectionAttempt is logged when libinjection flags a search parameter.
	EventSQLInjectionAttempt SecurityEventType = "sql_injection_attempt"
	// EventSearchRequest is logged for every accepted search (high volume).
	EventSearchRequest SecurityEventType = "search_request"
)

// SecurityEvent represents an auditable security event with all relevant context
// for SIEM ingestion and analysis.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	RequestID string            `json:"request_id,omitempty"`
	ClientIP  string            `json:"client_ip,omitempty"`
	Details   any               `json:"details"`
	Severity  string            `json:"severity"` // info, warning, critical
}

// InjectionDetails contains specifics of a flagged parameter.
type InjectionDetails struct {
	Endpoint    string `json:"endpoint"`
	ParamName   string `json:"param_name"`
	ParamValue  string `json:"param_value"`
	Fingerprint string `json:"fingerprint"`
}

// SecurityAuditor logs security events for SIEM consumption.
type SecurityAuditor struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewSecurityAuditor creates an auditor logging under the "security_audit" name.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit"), now: time.Now}
}

// AuditParameters checks params with libinjection and logs one critical
// event per hit. Returns the hits so callers can count them.
func (a *SecurityAuditor) AuditParameters(requestID, endpoint, clientIP string, params map[string]string) []*InjectionCheckResult {
	hits := CheckAllParameters(params)
	for _, h := range hits {
		a.LogInjectionAttempt(requestID, InjectionDetails{
			Endpoint:    endpoint,
			ParamName:   h.ParamName,
			ParamValue:  h.ParamValue,
			Fingerprint: h.Fingerprint,
		}, clientIP)
	}
	return hits
}

// LogInjectionAttempt records a flagged parameter at ERROR level with
// "critical" severity. The value is truncated before logging.
func (a *SecurityAuditor) LogInjectionAttempt(requestID string, details InjectionDetails, clientIP string) {
	details.ParamValue = logging.SanitizeQuery(details.ParamValue)

	event := SecurityEvent{
		Timestamp: a.now().UTC(),
		EventType: EventSQLInjectionAttempt,
		RequestID: requestID,
		ClientIP:  clientIP,
		Details:   details,
		Severity:  "critical",
	}

	// Marshaling known types cannot fail.
	eventJSON, _ := json.Marshal(event)

	a.logger.Error("SQL injection attempt detected",
		zap.String("event_json", string(eventJSON)),
		zap.String("request_id", requestID),
		zap.String("endpoint", details.Endpoint),
		zap.String("param_name", details.ParamName),
		zap.String("fingerprint", details.Fingerprint),
		zap.String("client_ip", clientIP),
		zap.String("severity", "critical"),
	)
}

// LogSearch records an accepted search request at INFO level.
func (a *SecurityAuditor) LogSearch(requestID, query, clientIP string) {
	event := SecurityEvent{
		Timestamp: a.now().UTC(),
		EventType: EventSearchRequest,
		RequestID: requestID,
		ClientIP:  clientIP,
		Details:   map[string]string{"query": logging.SanitizeQuery(query)},
		Severity:  "info",
	}

	eventJSON, _ := json.Marshal(event)

	a.logger.Info("Search request",
		zap.String("event_json", string(eventJSON)),
		zap.String("request_id", requestID),
		zap.String("client_ip", clientIP),
		zap.String("severity", "info"),
	)
}
