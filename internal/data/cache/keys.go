package cache

import "github.com/google/uuid"

func SnapshotKey(setID uuid.UUID) string { return "snapshot:" + setID.String() }

func BoardKey(userID uuid.UUID) string { return "board:" + userID.String() }
