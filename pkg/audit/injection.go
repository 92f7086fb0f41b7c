package audit

import (
	"sort"

	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult describes a request parameter that looks like SQL injection.
type InjectionCheckResult struct {
	ParamName   string
	ParamValue  string
	Fingerprint string // libinjection fingerprint of the detected pattern
}

// CheckParameterForInjection runs libinjection over one value.
// Returns nil when the value looks clean.
//
// Search text is always bound as a parameter, so a hit is never executed;
// it is only worth recording.
//
//	CheckParameterForInjection("q", "3 bed cork")             // nil
//	CheckParameterForInjection("q", "'; DROP TABLE agencies--") // Fingerprint "s&1c" or similar
func CheckParameterForInjection(paramName, value string) *InjectionCheckResult {
	if value == "" {
		return nil
	}
	isSQLi, fingerprint := libinjection.IsSQLi(value)
	if !isSQLi {
		return nil
	}
	return &InjectionCheckResult{
		ParamName:   paramName,
		ParamValue:  value,
		Fingerprint: string(fingerprint),
	}
}

// CheckAllParameters checks every value and returns the hits ordered by
// parameter name. Returns an empty slice when all values are clean.
func CheckAllParameters(params map[string]string) []*InjectionCheckResult {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	results := []*InjectionCheckResult{}
	for _, name := range names {
		if r := CheckParameterForInjection(name, params[name]); r != nil {
			results = append(results, r)
		}
	}
	return results
}
