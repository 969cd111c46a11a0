// Package sqlbuilder provides a typed accumulator for parameterised SELECT
// statements over the archive store. Values are always appended positionally
// and never interpolated into the query text; the one sanctioned exception —
// a recursive-CTE seed id list — goes through ValidateEntityID first.
package sqlbuilder

import (
	"fmt"
	"regexp"
	"strings"
)

// Builder accumulates SQL text and positional parameters.
type Builder struct {
	sql  strings.Builder
	args []any
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{}
}

// WriteString appends literal SQL text. The text must come from a closed,
// compile-time-known set of table/column names and clause fragments — never
// from request-derived data.
func (b *Builder) WriteString(s string) *Builder {
	b.sql.WriteString(s)
	return b
}

// Bind appends v to the parameter list and returns its positional
// placeholder ("$N").
func (b *Builder) Bind(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

// BindString appends v and writes its placeholder directly into the SQL
// text.
func (b *Builder) BindString(v any) *Builder {
	b.sql.WriteString(b.Bind(v))
	return b
}

// Query returns the accumulated SQL text and positional parameters.
func (b *Builder) Query() (string, []any) {
	return b.sql.String(), b.args
}

// NumArgs reports how many parameters have been bound so far.
func (b *Builder) NumArgs() int {
	return len(b.args)
}

// entityIDPattern is the shape every entity id must have: a 10-digit
// zero-padded block-height prefix followed by one or more '-'-separated
// hex/decimal segments.
var entityIDPattern = regexp.MustCompile(`^[0-9]{10}(-[0-9a-f]+)+$`)

// blockIDPattern matches a bare block id (no suffix segments), used for the
// recursive-call-ancestor seed list where ids may be either full call ids or
// (in defensive callers) block ids.
var blockIDPattern = regexp.MustCompile(`^[0-9]{10}$`)

// ValidateEntityID validates that id matches the expected
// "<height>-<segment>[-<segment>...]" shape, or is a bare 10-digit block id
// (blockIDPattern, also accepted), before it is allowed anywhere
// near a format-string-interpolated query. This is the single sanctioned
// exception to "always bind positionally": the deferred-call recursive CTE's
// seed id list performed poorly against the planner when bound as an array,
// so its ids are interpolated after being validated here.
func ValidateEntityID(id string) error {
	if entityIDPattern.MatchString(id) || blockIDPattern.MatchString(id) {
		return nil
	}
	return fmt.Errorf("invalid entity id format: %q", id)
}

// ValidateEntityIDs validates every id in ids, returning the first error
// encountered.
func ValidateEntityIDs(ids []string) error {
	for _, id := range ids {
		if err := ValidateEntityID(id); err != nil {
			return err
		}
	}
	return nil
}

// QuoteValidatedIDs renders a validated id list as a comma-separated list of
// single-quoted SQL string literals, suitable for interpolation into a
// recursive CTE's seed VALUES/IN clause. Callers must call
// ValidateEntityIDs first; QuoteValidatedIDs does not re-validate.
func QuoteValidatedIDs(ids []string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = "'" + id + "'"
	}
	return strings.Join(quoted, ", ")
}

// PadHeight zero-pads a block height to the 10-digit width used as the
// block-id prefix throughout the archive store.
func PadHeight(height int64) string {
	return fmt.Sprintf("%010d", height)
}
