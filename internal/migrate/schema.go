package migrate

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// stampTime is a snapshot column type for timestamps defaulting to
// CURRENT_TIMESTAMP. MySQL only accepts that default on a DATETIME without
// fractional precision, so the type is chosen per dialect.
type stampTime time.Time

func (stampTime) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "timestamptz"
	}
	return "datetime"
}

// index is a single-column named index.
type index struct {
	Name   string
	Table  string
	Column string
}

func createIndexes(tx *gorm.DB, idxs []index) error {
	for _, idx := range idxs {
		if err := tx.Exec("CREATE INDEX ? ON ? (?)",
			clause.Column{Name: idx.Name}, clause.Table{Name: idx.Table}, clause.Column{Name: idx.Column},
		).Error; err != nil {
			return err
		}
	}
	return nil
}

// dropIndexes drops idxs in reverse declaration order, skipping any that do
// not exist.
func dropIndexes(tx *gorm.DB, idxs []index) error {
	m := tx.Migrator()
	for i := len(idxs) - 1; i >= 0; i-- {
		idx := idxs[i]
		if !m.HasIndex(idx.Table, idx.Name) {
			continue
		}
		if err := m.DropIndex(idx.Table, idx.Name); err != nil {
			return err
		}
	}
	return nil
}

func dropTable(tx *gorm.DB, table string) error {
	if !tx.Migrator().HasTable(table) {
		return nil
	}
	return tx.Migrator().DropTable(table)
}
