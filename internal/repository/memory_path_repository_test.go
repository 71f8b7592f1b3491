package repository

import (
	"testing"

	"learnpath_backend/internal/model"
	"learnpath_backend/internal/util"
)

func TestMemoryRepositoryIsolation(t *testing.T) {
	repo := NewMemoryPathRepository()
	path := &model.LearningPath{Topic: "Go", Level: model.LevelBeginner, OwnerID: 1}
	if err := repo.Create(path); err != nil {
		t.Fatal(err)
	}
	if path.ID == "" {
		t.Fatal("create did not assign an id")
	}

	// 未经 Save 的修改不得泄漏回存储
	loaded, err := repo.FindByID(path.ID)
	if err != nil {
		t.Fatal(err)
	}
	loaded.Topic = "Rust"

	again, err := repo.FindByID(path.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again.Topic != "Go" {
		t.Errorf("unsaved mutation leaked, topic = %q", again.Topic)
	}

	loaded.Topic = "Rust"
	if err := repo.Save(loaded); err != nil {
		t.Fatal(err)
	}
	saved, err := repo.FindByID(path.ID)
	if err != nil {
		t.Fatal(err)
	}
	if saved.Topic != "Rust" {
		t.Errorf("saved mutation lost, topic = %q", saved.Topic)
	}
}

func TestMemoryRepositoryNotFound(t *testing.T) {
	repo := NewMemoryPathRepository()
	if _, err := repo.FindByID("missing"); err != util.ErrPathNotFound {
		t.Errorf("find err = %v, want ErrPathNotFound", err)
	}
	if err := repo.Save(&model.LearningPath{}); err != util.ErrPathNotFound {
		t.Errorf("save err = %v, want ErrPathNotFound", err)
	}
}

func TestMemoryRepositoryListByOwner(t *testing.T) {
	repo := NewMemoryPathRepository()
	for _, owner := range []uint{1, 1, 2} {
		p := &model.LearningPath{Topic: "Go", Level: model.LevelBeginner, OwnerID: owner}
		if err := repo.Create(p); err != nil {
			t.Fatal(err)
		}
	}

	paths, err := repo.ListByOwner(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 {
		t.Errorf("owner 1 paths = %d, want 2", len(paths))
	}
}
