package sawmill

import (
	"github.com/hejijunhao/sawmill/internal/export"
	"github.com/hejijunhao/sawmill/internal/model"
)

// Report types are shared with the engine so callers can marshal them with
// the same JSON and YAML field names the CLI and server produce.
type (
	Report   = model.Report
	Entry    = model.Entry
	Group    = model.Group
	Summary  = model.Summary
	Category = model.Category
	Dialect  = model.Dialect

	Row      = export.Row
	GroupRow = export.GroupRow
)

// Dialects.
const (
	WebLogic = model.DialectWebLogic
	Liferay  = model.DialectLiferay
	Java     = model.DialectJava
)
