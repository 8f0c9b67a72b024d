package detect

import "regexp"

// Pattern tables are compiled once at package load and shared read-only
// across all request goroutines.

const (
	ReasonSQLKeyword        = "sql_keyword"
	ReasonSQLMetacharacter  = "sql_metacharacter"
	ReasonBooleanInjection  = "boolean_injection"
	ReasonTimeBasedAttack   = "time_based_attack"
	ReasonExtendedProcedure = "extended_procedure"

	ReasonPathTraversal = "path_traversal"
	ReasonScriptTag     = "script_tag"
	ReasonUnionSelect   = "union_select"
	ReasonCodeExecution = "code_execution"
)

type pattern struct {
	reason string
	re     *regexp.Regexp
}

var injectionPatterns = []pattern{
	{ReasonSQLKeyword, regexp.MustCompile(`(?i)\b(SELECT|INSERT|UPDATE|DELETE|DROP|CREATE|ALTER|EXEC|UNION|SCRIPT)\b`)},
	{ReasonSQLMetacharacter, regexp.MustCompile(`(--|/\*|\*/|[;'"])`)},
	{ReasonBooleanInjection, regexp.MustCompile(`(?i)\b(OR|AND)\b.{0,20}?[=<>]`)},
	{ReasonTimeBasedAttack, regexp.MustCompile(`(?i)\b(WAITFOR|DELAY)\b`)},
	{ReasonExtendedProcedure, regexp.MustCompile(`(?i)\b(XP_|SP_)\w+`)},
}

var suspiciousPatterns = []pattern{
	{ReasonPathTraversal, regexp.MustCompile(`\.\.[/\\]?`)},
	{ReasonScriptTag, regexp.MustCompile(`(?i)<\s*script\b`)},
	{ReasonUnionSelect, regexp.MustCompile(`(?i)\bunion\s+select\b`)},
	{ReasonCodeExecution, regexp.MustCompile(`(?i)\bexec\s*\(`)},
}
