package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/greenlight-backend/internal/domain/curriculum"
	"github.com/yungbote/greenlight-backend/internal/domain/progress"
	"github.com/yungbote/greenlight-backend/internal/domain/user"
)

// Models lists every table owned by the service, in dependency order.
func Models() []any {
	return []any{
		&curriculum.Set{},
		&curriculum.Item{},
		&user.Profile{},
		&user.ParentStudentLink{},
		&progress.UserProgress{},
		&progress.Memo{},
	}
}

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	return EnsureConstraints(db)
}

type foreignKey struct {
	name, table, column, refTable string
}

// Item subtrees and per-item student data follow their item on delete.
var cascadeKeys = []foreignKey{
	{"fk_curriculum_items_parent", "curriculum_items", "parent_id", "curriculum_items"},
	{"fk_user_progress_item", "user_progress", "item_id", "curriculum_items"},
	{"fk_curriculum_memos_item", "curriculum_memos", "item_id", "curriculum_items"},
	{"fk_user_progress_user", "user_progress", "user_id", "profiles"},
	{"fk_curriculum_memos_user", "curriculum_memos", "user_id", "profiles"},
	{"fk_parent_links_parent", "parent_student_links", "parent_id", "profiles"},
	{"fk_parent_links_student", "parent_student_links", "student_id", "profiles"},
}

// EnsureConstraints adds ON DELETE CASCADE foreign keys idempotently.
func EnsureConstraints(db *gorm.DB) error {
	for _, fk := range cascadeKeys {
		stmt := fmt.Sprintf(`
			DO $$
			BEGIN
				IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN
					ALTER TABLE %q ADD CONSTRAINT %q
					FOREIGN KEY (%q) REFERENCES %q(id) ON DELETE CASCADE;
				END IF;
			END $$;`, fk.name, fk.table, fk.name, fk.column, fk.refTable)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("add %s: %w", fk.name, err)
		}
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_user_progress_red
		ON user_progress(updated_at DESC)
		WHERE status = 'RED';
	`).Error; err != nil {
		return fmt.Errorf("add idx_user_progress_red: %w", err)
	}
	return nil
}
