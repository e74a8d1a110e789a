package model

// Severity 审核严重级别
type Severity string

const (
	SeverityNone    Severity = "NONE"
	SeverityLow     Severity = "LOW"
	SeverityMedium  Severity = "MEDIUM"
	SeverityHigh    Severity = "HIGH"
	SeverityUnknown Severity = "UNKNOWN" // 分析未完成，与 NONE 同级
)

// Rank 返回用于比较的序数。UNKNOWN 与 NONE 同为 0。
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	default:
		return 0
	}
}

// Outranks 当 s 的级别严格高于 other 时返回 true
func (s Severity) Outranks(other Severity) bool {
	return s.Rank() > other.Rank()
}

// MaxSeverity 返回级别最高者，级别相同时保留 current
func MaxSeverity(current Severity, candidates ...Severity) Severity {
	for _, c := range candidates {
		if c.Outranks(current) {
			current = c
		}
	}
	return current
}

// Valid 检查是否为已知级别
func (s Severity) Valid() bool {
	switch s {
	case SeverityNone, SeverityLow, SeverityMedium, SeverityHigh, SeverityUnknown:
		return true
	}
	return false
}
