package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/greenlight-backend/internal/domain/curriculum"
	"github.com/yungbote/greenlight-backend/internal/domain/progress"
	"github.com/yungbote/greenlight-backend/internal/domain/user"
)

func SeedSet(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *curriculum.Set {
	tb.Helper()
	s := &curriculum.Set{ID: uuid.New(), Name: name}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed set: %v", err)
	}
	return s
}

// SeedItem creates an item under parent (nil for a root) with depth derived from it.
func SeedItem(tb testing.TB, ctx context.Context, tx *gorm.DB, setID uuid.UUID, parent *curriculum.Item, name string, leaf bool, order int) *curriculum.Item {
	tb.Helper()
	it := &curriculum.Item{ID: uuid.New(), SetID: setID, Name: name, IsLeaf: leaf, Order: order, Depth: 1}
	if parent != nil {
		pid := parent.ID
		it.ParentID = &pid
		it.Depth = parent.Depth + 1
	}
	if err := tx.WithContext(ctx).Create(it).Error; err != nil {
		tb.Fatalf("seed item: %v", err)
	}
	return it
}

func SeedProfile(tb testing.TB, ctx context.Context, tx *gorm.DB, name string, role user.Role) *user.Profile {
	tb.Helper()
	p := &user.Profile{ID: uuid.New(), Email: name + "@example.com", Name: name, Role: role}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed profile: %v", err)
	}
	return p
}

func SeedProgress(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, itemID uuid.UUID, status progress.Status) *progress.UserProgress {
	tb.Helper()
	row := &progress.UserProgress{ID: uuid.New(), UserID: userID, ItemID: itemID, Status: status}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed progress: %v", err)
	}
	return row
}

func SeedMemo(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, itemID uuid.UUID, studentMemo string) *progress.Memo {
	tb.Helper()
	m := &progress.Memo{ID: uuid.New(), UserID: userID, ItemID: itemID, StudentMemo: &studentMemo}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed memo: %v", err)
	}
	return m
}

func SeedLink(tb testing.TB, ctx context.Context, tx *gorm.DB, parentID, studentID uuid.UUID) *user.ParentStudentLink {
	tb.Helper()
	l := &user.ParentStudentLink{ID: uuid.New(), ParentID: parentID, StudentID: studentID}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed link: %v", err)
	}
	return l
}
