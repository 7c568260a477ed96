package gateway

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	dErrors "praxis/pkg/domain-errors"
)

// castKind selects the PostgreSQL cast appended to a bind placeholder.
type castKind int

const (
	castNone castKind = iota
	castJSONB
	castDate
	castUUID
)

// structuredColumns are stored as jsonb in every table that carries them.
// Values bound to these columns are serialized to JSON and cast on insert.
var structuredColumns = map[string]bool{
	"tags":        true,
	"metadata":    true,
	"address":     true,
	"contacts":    true,
	"items":       true,
	"subtasks":    true,
	"assigned_to": true,
}

// dateColumns that don't follow the _date naming convention.
var dateColumns = map[string]bool{
	"due_date":   true,
	"start_date": true,
	"end_date":   true,
	"issue_date": true,
}

var uuidPattern = regexp.MustCompile(
	`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// castFor infers the cast for a column/value pair. Column naming wins over
// value shape: a UUID string bound to a jsonb column is still jsonb.
func castFor(column string, value any) castKind {
	if structuredColumns[column] {
		return castJSONB
	}
	if dateColumns[column] || strings.HasSuffix(column, "_date") {
		return castDate
	}
	if s, ok := value.(string); ok && uuidPattern.MatchString(s) {
		return castUUID
	}
	return castNone
}

// placeholderFor renders the bind placeholder for position n with the cast applied.
func placeholderFor(kind castKind, n int) string {
	switch kind {
	case castJSONB:
		return fmt.Sprintf("$%d::jsonb", n)
	case castDate:
		return fmt.Sprintf("$%d::date", n)
	case castUUID:
		return fmt.Sprintf("$%d::uuid", n)
	default:
		return fmt.Sprintf("$%d", n)
	}
}

// encodeValue prepares a value for binding. Structured values are serialized
// to JSON text; everything else passes through untouched.
func encodeValue(kind castKind, column string, value any) (any, error) {
	if kind != castJSONB {
		return value, nil
	}
	if value == nil {
		return nil, nil
	}
	// Pre-serialized JSON passes through.
	if s, ok := value.(string); ok {
		return s, nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput,
			fmt.Sprintf("value for column %s is not serializable", column))
	}
	return string(b), nil
}
