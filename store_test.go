package inkpress

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/eringen/inkpress/widget"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetPost(t *testing.T) {
	s := setupTestStore(t)

	post := Post{
		Title:    "Hello World",
		Body:     "<p>First post with a [quiz id=1] marker.</p>",
		Summary:  "The first post",
		Status:   StatusPublished,
		Category: "technology",
		Tags:     []string{"Go", "Web"},
	}
	if err := s.CreatePost(&post); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if post.ID == 0 {
		t.Fatal("expected CreatePost to assign an id")
	}
	if post.Slug != "hello-world" {
		t.Errorf("slug = %q, want %q", post.Slug, "hello-world")
	}

	got, err := s.GetPost(post.ID)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.Title != post.Title || got.Body != post.Body || got.Category != post.Category {
		t.Errorf("round-trip mismatch: got %+v", got)
	}
	// Tags are normalized to lowercase on write.
	if len(got.Tags) != 2 || got.Tags[0] != "go" || got.Tags[1] != "web" {
		t.Errorf("tags = %v, want [go web]", got.Tags)
	}
}

func TestCreatePostSlugCollision(t *testing.T) {
	s := setupTestStore(t)

	for i, want := range []string{"my-post", "my-post-2", "my-post-3"} {
		post := Post{Title: "My Post", Body: "body"}
		if err := s.CreatePost(&post); err != nil {
			t.Fatalf("CreatePost %d failed: %v", i, err)
		}
		if post.Slug != want {
			t.Errorf("post %d slug = %q, want %q", i, post.Slug, want)
		}
	}
}

func TestUpdatePostKeepsOwnSlug(t *testing.T) {
	s := setupTestStore(t)

	post := Post{Title: "Stable Title", Body: "v1"}
	if err := s.CreatePost(&post); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	post.Body = "v2"
	if err := s.UpdatePost(&post); err != nil {
		t.Fatalf("UpdatePost failed: %v", err)
	}
	if post.Slug != "stable-title" {
		t.Errorf("slug after update = %q, want %q", post.Slug, "stable-title")
	}

	got, err := s.GetPost(post.ID)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.Body != "v2" {
		t.Errorf("body = %q, want %q", got.Body, "v2")
	}
}

func TestGetPostBySlugOnlyPublished(t *testing.T) {
	s := setupTestStore(t)

	draft := Post{Title: "Draft Post", Body: "wip", Status: StatusDraft}
	if err := s.CreatePost(&draft); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	if _, err := s.GetPostBySlug(draft.Slug); err != sql.ErrNoRows {
		t.Fatalf("GetPostBySlug(draft) err = %v, want sql.ErrNoRows", err)
	}
	if _, err := s.GetPostBySlugAny(draft.Slug); err != nil {
		t.Fatalf("GetPostBySlugAny(draft) failed: %v", err)
	}
}

func TestListPublishedFilters(t *testing.T) {
	s := setupTestStore(t)

	posts := []Post{
		{Title: "Go Post", Body: "b", Status: StatusPublished, Category: "technology", Tags: []string{"go"}},
		{Title: "Cooking Post", Body: "b", Status: StatusPublished, Category: "opinion", Tags: []string{"food"}},
		{Title: "Hidden Draft", Body: "b", Status: StatusDraft, Category: "technology", Tags: []string{"go"}},
	}
	for i := range posts {
		if err := s.CreatePost(&posts[i]); err != nil {
			t.Fatalf("CreatePost failed: %v", err)
		}
	}

	all, err := s.ListPublished("", "", 0, 0)
	if err != nil {
		t.Fatalf("ListPublished failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ListPublished returned %d posts, want 2", len(all))
	}

	byTag, err := s.ListPublished("go", "", 0, 0)
	if err != nil {
		t.Fatalf("ListPublished(tag) failed: %v", err)
	}
	if len(byTag) != 1 || byTag[0].Title != "Go Post" {
		t.Errorf("tag filter returned %+v, want just the Go post", byTag)
	}

	byCat, err := s.ListPublished("", "Technology", 0, 0)
	if err != nil {
		t.Fatalf("ListPublished(category) failed: %v", err)
	}
	if len(byCat) != 1 || byCat[0].Title != "Go Post" {
		t.Errorf("category filter returned %+v, want just the Go post", byCat)
	}

	count, err := s.CountPublished("go", "")
	if err != nil {
		t.Fatalf("CountPublished failed: %v", err)
	}
	if count != 1 {
		t.Errorf("CountPublished(go) = %d, want 1", count)
	}
}

func TestListTagsAndCategories(t *testing.T) {
	s := setupTestStore(t)

	posts := []Post{
		{Title: "A", Body: "b", Status: StatusPublished, Category: "Technology", Tags: []string{"Web", "go"}},
		{Title: "B", Body: "b", Status: StatusPublished, Category: "technology", Tags: []string{"go"}},
	}
	for i := range posts {
		if err := s.CreatePost(&posts[i]); err != nil {
			t.Fatalf("CreatePost failed: %v", err)
		}
	}

	tags, err := s.ListTags()
	if err != nil {
		t.Fatalf("ListTags failed: %v", err)
	}
	if len(tags) != 2 || tags[0] != "go" || tags[1] != "web" {
		t.Errorf("tags = %v, want [go web]", tags)
	}

	cats, err := s.ListCategories()
	if err != nil {
		t.Fatalf("ListCategories failed: %v", err)
	}
	if len(cats) != 1 || cats[0] != "technology" {
		t.Errorf("categories = %v, want [technology]", cats)
	}
}

func TestDeletePostCascades(t *testing.T) {
	s := setupTestStore(t)

	post := Post{Title: "Doomed", Body: "b"}
	if err := s.CreatePost(&post); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	quiz := widget.Quiz{
		PostID:        post.ID,
		Question:      "Is Go compiled?",
		Kind:          widget.TrueFalse,
		CorrectAnswer: "true",
	}
	if err := s.CreateQuiz(&quiz); err != nil {
		t.Fatalf("CreateQuiz failed: %v", err)
	}
	chart := widget.Chart{
		PostID: post.ID,
		Labels: []string{"Q1", "Q2"},
		Series: []widget.Series{{Name: "revenue", Points: []float64{1, 2}}},
	}
	if err := s.CreateChart(&chart); err != nil {
		t.Fatalf("CreateChart failed: %v", err)
	}
	if err := s.SaveRevision(post.ID, post.Title, post.Body); err != nil {
		t.Fatalf("SaveRevision failed: %v", err)
	}

	if err := s.DeletePost(post.ID); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}

	if _, err := s.GetPost(post.ID); err != sql.ErrNoRows {
		t.Errorf("GetPost after delete err = %v, want sql.ErrNoRows", err)
	}
	if _, err := s.Quiz(quiz.ID); !errors.Is(err, widget.ErrNotFound) {
		t.Errorf("Quiz after delete err = %v, want widget.ErrNotFound", err)
	}
	if _, err := s.Chart(chart.ID); !errors.Is(err, widget.ErrNotFound) {
		t.Errorf("Chart after delete err = %v, want widget.ErrNotFound", err)
	}
	revs, err := s.ListRevisions(post.ID, 0)
	if err != nil {
		t.Fatalf("ListRevisions failed: %v", err)
	}
	if len(revs) != 0 {
		t.Errorf("revisions after delete = %d, want 0", len(revs))
	}
}

func TestQuizRoundTrip(t *testing.T) {
	s := setupTestStore(t)

	quiz := widget.Quiz{
		PostID:        1,
		Question:      "Pick one",
		Kind:          widget.MultipleChoice,
		Options:       []string{"a", "b", "c"},
		CorrectAnswer: "b",
	}
	if err := s.CreateQuiz(&quiz); err != nil {
		t.Fatalf("CreateQuiz failed: %v", err)
	}

	got, err := s.Quiz(quiz.ID)
	if err != nil {
		t.Fatalf("Quiz failed: %v", err)
	}
	if got.Question != quiz.Question || got.CorrectAnswer != quiz.CorrectAnswer {
		t.Errorf("round-trip mismatch: got %+v", got)
	}
	if len(got.Options) != 3 || got.Options[1] != "b" {
		t.Errorf("options = %v, want [a b c]", got.Options)
	}
}

func TestUpdateQuiz(t *testing.T) {
	s := setupTestStore(t)

	quiz := widget.Quiz{PostID: 1, Question: "Old question", Kind: widget.TrueFalse, CorrectAnswer: "true"}
	if err := s.CreateQuiz(&quiz); err != nil {
		t.Fatalf("CreateQuiz failed: %v", err)
	}

	quiz.Question = "New question"
	quiz.CorrectAnswer = "false"
	if err := s.UpdateQuiz(&quiz); err != nil {
		t.Fatalf("UpdateQuiz failed: %v", err)
	}

	got, err := s.Quiz(quiz.ID)
	if err != nil {
		t.Fatalf("Quiz failed: %v", err)
	}
	if got.Question != "New question" || got.CorrectAnswer != "false" {
		t.Errorf("update not persisted: got %+v", got)
	}

	missing := widget.Quiz{ID: 9999, PostID: 1, Question: "q", Kind: widget.TrueFalse, CorrectAnswer: "true"}
	if err := s.UpdateQuiz(&missing); !errors.Is(err, widget.ErrNotFound) {
		t.Fatalf("UpdateQuiz(missing) err = %v, want widget.ErrNotFound", err)
	}
}

func TestCreateQuizRejectsInvalid(t *testing.T) {
	s := setupTestStore(t)

	quiz := widget.Quiz{PostID: 1, Question: "", Kind: widget.TrueFalse, CorrectAnswer: "true"}
	if err := s.CreateQuiz(&quiz); !errors.Is(err, widget.ErrInvalid) {
		t.Fatalf("CreateQuiz err = %v, want widget.ErrInvalid", err)
	}
}

func TestUserLoginState(t *testing.T) {
	s := setupTestStore(t)

	user, err := s.CreateUser("alice", "hash", "")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.Role != RoleAuthor {
		t.Errorf("role = %q, want %q", user.Role, RoleAuthor)
	}

	until := time.Now().UTC().Add(15 * time.Minute).Truncate(time.Second)
	if err := s.UpdateLoginState(user.ID, 5, until); err != nil {
		t.Fatalf("UpdateLoginState failed: %v", err)
	}

	got, err := s.GetUserByUsername("alice")
	if err != nil {
		t.Fatalf("GetUserByUsername failed: %v", err)
	}
	if got.FailedLogins != 5 {
		t.Errorf("failed logins = %d, want 5", got.FailedLogins)
	}
	if !got.Locked() {
		t.Error("expected account to be locked")
	}

	if err := s.ResetLoginState(user.ID); err != nil {
		t.Fatalf("ResetLoginState failed: %v", err)
	}
	got, err = s.GetUser(user.ID)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got.FailedLogins != 0 || got.Locked() {
		t.Errorf("expected reset state, got failures=%d locked=%v", got.FailedLogins, got.Locked())
	}
}

func TestDeleteUserMissing(t *testing.T) {
	s := setupTestStore(t)

	if err := s.DeleteUser(42); err != sql.ErrNoRows {
		t.Fatalf("DeleteUser err = %v, want sql.ErrNoRows", err)
	}
}

func TestRevisionsPrunedToCap(t *testing.T) {
	s := setupTestStore(t)

	post := Post{Title: "Revised", Body: "v0"}
	if err := s.CreatePost(&post); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	for i := 0; i < revisionKeep+5; i++ {
		if err := s.SaveRevision(post.ID, post.Title, fmt.Sprintf("v%d", i)); err != nil {
			t.Fatalf("SaveRevision %d failed: %v", i, err)
		}
	}

	revs, err := s.ListRevisions(post.ID, revisionKeep+10)
	if err != nil {
		t.Fatalf("ListRevisions failed: %v", err)
	}
	if len(revs) != revisionKeep {
		t.Fatalf("kept %d revisions, want %d", len(revs), revisionKeep)
	}
	// Newest first, and the oldest snapshots are the ones pruned.
	if revs[0].Body != fmt.Sprintf("v%d", revisionKeep+4) {
		t.Errorf("newest revision body = %q, want v%d", revs[0].Body, revisionKeep+4)
	}

	got, err := s.GetRevision(revs[0].ID)
	if err != nil {
		t.Fatalf("GetRevision failed: %v", err)
	}
	if got.PostID != post.ID || got.Body != revs[0].Body {
		t.Errorf("GetRevision mismatch: got %+v", got)
	}
}

func TestUploadRoundTrip(t *testing.T) {
	s := setupTestStore(t)

	up := Upload{
		Filename:     "sunset.jpg",
		OriginalName: "IMG_2041.JPG",
		Kind:         "image",
		Width:        800,
		Height:       533,
		Size:         120_000,
	}
	if err := s.SaveUpload(&up); err != nil {
		t.Fatalf("SaveUpload failed: %v", err)
	}

	got, err := s.GetUpload("sunset.jpg")
	if err != nil {
		t.Fatalf("GetUpload failed: %v", err)
	}
	if got.OriginalName != up.OriginalName || got.Width != 800 {
		t.Errorf("round-trip mismatch: got %+v", got)
	}

	list, err := s.ListUploads("")
	if err != nil {
		t.Fatalf("ListUploads failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("ListUploads returned %d rows, want 1", len(list))
	}

	deleted, err := s.DeleteUpload("sunset.jpg")
	if err != nil {
		t.Fatalf("DeleteUpload failed: %v", err)
	}
	if deleted.Filename != "sunset.jpg" {
		t.Errorf("deleted filename = %q, want sunset.jpg", deleted.Filename)
	}
	if _, err := s.GetUpload("sunset.jpg"); err != sql.ErrNoRows {
		t.Errorf("GetUpload after delete err = %v, want sql.ErrNoRows", err)
	}
}
