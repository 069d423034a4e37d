package models

// All returns every persisted model in migration order.
func All() []any {
	return []any{
		&User{},
		&Project{},
		&Theme{},
		&Page{},
		&Revision{},
		&Snapshot{},
		&AssistantRun{},
		&PublishLog{},
		&EditorSession{},
	}
}
