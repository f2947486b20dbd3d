// Package validate checks that the model structs expose every column the
// migrations create, catching drift between the two (such as delivered_at
// and read_at once existing only in the migration).
package validate

import (
	"fmt"
	"strings"
	"sync"

	"github.com/zulandar/liveagent/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Entity names a model and the columns it must expose.
type Entity struct {
	Name     string
	Model    interface{}
	Required []string
}

// Column is one database column of a parsed model. Type is the SQL type the
// column is created with on the MySQL dialect, or the live database's type
// name for CheckDatabase.
type Column struct {
	Name string
	Type string
}

// Result is the outcome of checking one entity.
type Result struct {
	Entity  string
	Columns []Column
	Missing []string
	// Targeted lists columns that get an explicit presence line in the
	// report. A targeted column that is absent also counts as missing.
	Targeted []string
	Err      error
}

// Passed reports whether the entity parsed and no required column is missing.
func (r Result) Passed() bool { return r.Err == nil && len(r.Missing) == 0 }

// MessageColumns are the columns live_agent_messages is created with.
var MessageColumns = []string{
	"id", "session_id", "sender_type", "sender_id", "sender_name", "message_text",
	"created_at", "read_by_user", "read_by_agent", "delivered_at", "read_at", "message_metadata",
}

// SessionColumns are the columns live_agent_sessions is created with.
var SessionColumns = []string{
	"id", "tenant_domain", "user_account", "user_name",
	"assigned_agent_id", "assigned_agent_name", "status",
	"created_at", "updated_at", "last_message_at",
	"unread_count_user", "unread_count_agent", "metadata",
}

// driftColumns had been declared in the migration but not the model.
var driftColumns = []string{"delivered_at", "read_at"}

// DefaultEntities returns the live-agent models with their expected columns.
func DefaultEntities() []Entity {
	return []Entity{
		{Name: "LiveAgentMessage", Model: &models.Message{}, Required: MessageColumns},
		{Name: "LiveAgentSession", Model: &models.Session{}, Required: SessionColumns},
	}
}

var schemaCache sync.Map

var (
	typerOnce sync.Once
	typer     *gorm.DB
	typerErr  error
)

// sqlTyper returns an unconnected MySQL handle used only to render column
// types. DryRun with version detection and ping disabled never dials.
func sqlTyper() (*gorm.DB, error) {
	typerOnce.Do(func() {
		typer, typerErr = gorm.Open(mysql.New(mysql.Config{SkipInitializeWithVersion: true}), &gorm.Config{
			DryRun:               true,
			DisableAutomaticPing: true,
		})
	})
	return typer, typerErr
}

// sqlType renders f the way the MySQL migrator declares it, without the
// nullability suffix.
func sqlType(tdb *gorm.DB, f *schema.Field) string {
	typ := tdb.Migrator().(mysql.Migrator).Migrator.DataTypeOf(f)
	if typ == "" {
		typ = f.FieldType.String()
	}
	return strings.ToUpper(strings.TrimSuffix(typ, " NULL"))
}

// Columns parses model with GORM's default naming and returns its database
// columns in declaration order. Relations are not columns and are skipped.
func Columns(model interface{}) ([]Column, error) {
	s, err := schema.Parse(model, &schemaCache, schema.NamingStrategy{})
	if err != nil {
		return nil, fmt.Errorf("validate: parse %T: %w", model, err)
	}
	tdb, err := sqlTyper()
	if err != nil {
		return nil, fmt.Errorf("validate: type renderer: %w", err)
	}
	cols := make([]Column, 0, len(s.DBNames))
	for _, f := range s.Fields {
		if f.DBName == "" {
			continue
		}
		cols = append(cols, Column{Name: f.DBName, Type: sqlType(tdb, f)})
	}
	return cols, nil
}

// Check compares e's model columns with e.Required.
func Check(e Entity) Result {
	res := Result{Entity: e.Name}
	if e.Name == "LiveAgentMessage" {
		res.Targeted = driftColumns
	}
	cols, err := Columns(e.Model)
	if err != nil {
		res.Err = err
		return res
	}
	res.Columns = cols
	res.Missing = missing(append(append([]string(nil), e.Required...), res.Targeted...), names(cols))
	return res
}

// CheckDatabase compares the columns of e's table in the live database with
// e.Required, catching drift on the migration side.
func CheckDatabase(db *gorm.DB, e Entity) Result {
	res := Result{Entity: e.Name + " (database)"}
	if !db.Migrator().HasTable(e.Model) {
		res.Err = fmt.Errorf("validate: table for %s does not exist", e.Name)
		return res
	}
	types, err := db.Migrator().ColumnTypes(e.Model)
	if err != nil {
		res.Err = fmt.Errorf("validate: column types for %s: %w", e.Name, err)
		return res
	}
	for _, ct := range types {
		res.Columns = append(res.Columns, Column{Name: ct.Name(), Type: ct.DatabaseTypeName()})
	}
	res.Missing = missing(e.Required, names(res.Columns))
	return res
}

// CheckAll runs Check over every entity.
func CheckAll(entities []Entity) []Result {
	out := make([]Result, 0, len(entities))
	for _, e := range entities {
		out = append(out, Check(e))
	}
	return out
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed() {
			return false
		}
	}
	return true
}

func names(cols []Column) map[string]bool {
	set := make(map[string]bool, len(cols))
	for _, c := range cols {
		set[c.Name] = true
	}
	return set
}

// missing returns required minus present, keeping the order of required.
func missing(required []string, present map[string]bool) []string {
	var out []string
	seen := make(map[string]bool, len(required))
	for _, name := range required {
		if present[name] || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
