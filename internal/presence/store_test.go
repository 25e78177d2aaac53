package presence

import (
	"sync"
	"testing"

	"realtime/internal/models"
)

var (
	story42  = models.EntityRef{Type: models.EntityStory, ID: "42"}
	sprint7  = models.EntityRef{Type: models.EntitySprint, ID: "7"}
	project1 = models.EntityRef{Type: models.EntityProject, ID: "1"}
)

func contains(users []models.UserPresence, userID string) bool {
	for _, u := range users {
		if u.UserID == userID {
			return true
		}
	}
	return false
}

func TestGetUsersEmptyNeverNil(t *testing.T) {
	s := NewStore()
	users := s.GetUsers(story42)
	if users == nil {
		t.Fatalf("expected empty slice, got nil")
	}
	if len(users) != 0 {
		t.Fatalf("expected no viewers, got %#v", users)
	}
}

func TestAddUserIdempotent(t *testing.T) {
	s := NewStore()
	u := models.UserPresence{UserID: "u1", UserName: "Ada"}

	s.AddUser(story42, u)
	s.AddUser(story42, u)

	users := s.GetUsers(story42)
	if len(users) != 1 {
		t.Fatalf("expected 1 viewer after duplicate add, got %d", len(users))
	}
	if users[0] != u {
		t.Fatalf("unexpected viewer entry: %#v", users[0])
	}
}

func TestAddUserOverwritesName(t *testing.T) {
	s := NewStore()
	s.AddUser(story42, models.UserPresence{UserID: "u1", UserName: "Ada"})
	s.AddUser(story42, models.UserPresence{UserID: "u1", UserName: "Ada L."})

	users := s.GetUsers(story42)
	if len(users) != 1 || users[0].UserName != "Ada L." {
		t.Fatalf("expected overwritten entry, got %#v", users)
	}
}

func TestRemoveUserSymmetry(t *testing.T) {
	s := NewStore()
	s.AddUser(story42, models.UserPresence{UserID: "u1", UserName: "Ada"})
	s.AddUser(story42, models.UserPresence{UserID: "u2", UserName: "Grace"})

	s.RemoveUser(story42, "u1")

	users := s.GetUsers(story42)
	if contains(users, "u1") {
		t.Fatalf("expected u1 removed, got %#v", users)
	}
	if !contains(users, "u2") {
		t.Fatalf("expected u2 to remain, got %#v", users)
	}
}

func TestRemoveUserNoopWhenAbsent(t *testing.T) {
	s := NewStore()
	s.RemoveUser(story42, "ghost")

	s.AddUser(story42, models.UserPresence{UserID: "u1", UserName: "Ada"})
	s.RemoveUser(story42, "ghost")
	if len(s.GetUsers(story42)) != 1 {
		t.Fatalf("removing absent user should not affect the set")
	}
}

func TestEmptySetIsCollected(t *testing.T) {
	s := NewStore()
	s.AddUser(story42, models.UserPresence{UserID: "u1", UserName: "Ada"})
	s.RemoveUser(story42, "u1")

	s.mu.RLock()
	_, tracked := s.viewers[story42]
	s.mu.RUnlock()
	if tracked {
		t.Fatalf("expected empty viewer set to be dropped")
	}
}

func TestRemoveUserFromAll(t *testing.T) {
	s := NewStore()
	s.AddUser(story42, models.UserPresence{UserID: "u1", UserName: "Ada"})
	s.AddUser(sprint7, models.UserPresence{UserID: "u1", UserName: "Ada"})
	s.AddUser(sprint7, models.UserPresence{UserID: "u2", UserName: "Grace"})
	s.AddUser(project1, models.UserPresence{UserID: "u2", UserName: "Grace"})

	affected := s.RemoveUserFromAll("u1")
	if len(affected) != 2 {
		t.Fatalf("expected 2 affected entities, got %#v", affected)
	}
	seen := map[models.EntityRef]bool{}
	for _, ref := range affected {
		seen[ref] = true
	}
	if !seen[story42] || !seen[sprint7] {
		t.Fatalf("unexpected affected refs: %#v", affected)
	}

	if contains(s.GetUsers(story42), "u1") || contains(s.GetUsers(sprint7), "u1") {
		t.Fatalf("expected u1 purged everywhere")
	}
	if !contains(s.GetUsers(sprint7), "u2") || !contains(s.GetUsers(project1), "u2") {
		t.Fatalf("expected u2 untouched")
	}
}

func TestRemoveUserFromAllNoViews(t *testing.T) {
	s := NewStore()
	if affected := s.RemoveUserFromAll("u1"); len(affected) != 0 {
		t.Fatalf("expected no affected entities, got %#v", affected)
	}
}

func TestViewerCount(t *testing.T) {
	s := NewStore()
	if s.ViewerCount(story42) != 0 {
		t.Fatalf("expected 0 viewers")
	}
	s.AddUser(story42, models.UserPresence{UserID: "u1", UserName: "Ada"})
	s.AddUser(story42, models.UserPresence{UserID: "u2", UserName: "Grace"})
	if got := s.ViewerCount(story42); got != 2 {
		t.Fatalf("expected 2 viewers, got %d", got)
	}
}

func TestConcurrentMutations(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			u := models.UserPresence{UserID: "u1", UserName: "Ada"}
			for j := 0; j < 100; j++ {
				s.AddUser(story42, u)
				s.GetUsers(story42)
				if n%2 == 0 {
					s.RemoveUser(story42, "u1")
				} else {
					s.RemoveUserFromAll("u1")
				}
			}
		}(i)
	}
	wg.Wait()
}
