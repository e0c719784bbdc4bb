package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/app/repositories"
)

type schoolSeed struct {
	name     string
	city     string
	teachers []teacherSeed
	chats    []chatSeed
}

type teacherSeed struct {
	name    string
	subject string
}

type chatSeed struct {
	name  string
	grade string
}

var (
	defaultSchools = []schoolSeed{
		{
			name: "Lincoln High School", city: "Springfield",
			teachers: []teacherSeed{{"Ms. Rivera", "Mathematics"}, {"Mr. Chen", "Physics"}, {"Mrs. Okafor", "Literature"}},
			chats:    []chatSeed{{"Lincoln Lounge", ""}, {"Class of 10", "10"}, {"Class of 11", "11"}},
		},
		{
			name: "Roosevelt Academy", city: "Shelbyville",
			teachers: []teacherSeed{{"Mr. Novak", "Chemistry"}, {"Ms. Haddad", "History"}},
			chats:    []chatSeed{{"Roosevelt Commons", ""}, {"Class of 10", "10"}},
		},
	}

	defaultCommunities = []struct{ name, slug, description string }{
		{"Gaming", "gaming", "Consoles, PC and everything in between"},
		{"Study Hall", "study-hall", "Homework help and exam prep"},
		{"Music", "music", "Share what you are listening to"},
	}

	defaultChallenges = []struct {
		title, description string
		maxPoints         int
	}{
		{"Reading Marathon", "Pages read by students this term", 1000},
		{"Green Campus", "Recycling and clean-up drives", 500},
	}
)

// CreateDefaultData inserts the schools, teachers, chats, communities,
// challenges and rivalry a fresh deployment starts with. Rows that already
// exist (matched by name, or slug for communities) are left untouched, so it
// is safe to run repeatedly.
func CreateDefaultData(ctx context.Context, repos *repositories.Repositories, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default data...")
	var finalErr error

	existing, err := repos.Schools.List(ctx)
	if err != nil {
		return fmt.Errorf("error listing schools: %w", err)
	}
	byName := make(map[string]*models.School, len(existing))
	for _, s := range existing {
		byName[s.Name] = s
	}

	var schoolIDs []string
	for _, seed := range defaultSchools {
		school, ok := byName[seed.name]
		if !ok {
			city := seed.city
			school = &models.School{Name: seed.name, LocationCity: &city}
			if err := repos.Schools.Create(ctx, school); err != nil {
				lgr.Error().Err(err).Str("school", seed.name).Msg("Error creating school")
				finalErr = errors.Join(finalErr, err)
				continue
			}
			lgr.Info().Str("schoolID", school.ID).Str("school", seed.name).Msg("School created")
		}
		schoolIDs = append(schoolIDs, school.ID)

		finalErr = errors.Join(finalErr,
			seedTeachers(ctx, repos, school.ID, seed.teachers, lgr),
			seedChats(ctx, repos, school.ID, seed.chats, lgr),
		)
	}

	finalErr = errors.Join(finalErr,
		seedCommunities(ctx, repos, lgr),
		seedChallenges(ctx, repos, lgr),
	)

	if len(schoolIDs) >= 2 {
		finalErr = errors.Join(finalErr, seedRivalry(ctx, repos, schoolIDs[0], schoolIDs[1], lgr))
	}

	lgr.Info().Msg("Default data check/creation finished.")
	return finalErr
}

func seedTeachers(ctx context.Context, repos *repositories.Repositories, schoolID string, seeds []teacherSeed, lgr zerolog.Logger) error {
	current, err := repos.Teachers.List(ctx, schoolID)
	if err != nil {
		return fmt.Errorf("error listing teachers: %w", err)
	}
	have := make(map[string]bool, len(current))
	for _, t := range current {
		have[t.Name] = true
	}

	var finalErr error
	for _, seed := range seeds {
		if have[seed.name] {
			continue
		}
		subject := seed.subject
		if err := repos.Teachers.Create(ctx, &models.Teacher{SchoolID: schoolID, Name: seed.name, Subject: &subject}); err != nil {
			lgr.Error().Err(err).Str("teacher", seed.name).Msg("Error creating teacher")
			finalErr = errors.Join(finalErr, err)
		}
	}
	return finalErr
}

func seedChats(ctx context.Context, repos *repositories.Repositories, schoolID string, seeds []chatSeed, lgr zerolog.Logger) error {
	var finalErr error
	for _, seed := range seeds {
		var grade *string
		if seed.grade != "" {
			g := seed.grade
			grade = &g
		}
		// Listing at the chat's own grade also returns the school-wide chats.
		current, err := repos.Chats.ListChats(ctx, schoolID, grade)
		if err != nil {
			finalErr = errors.Join(finalErr, fmt.Errorf("error listing chats: %w", err))
			continue
		}
		if containsChat(current, seed.name) {
			continue
		}
		if err := repos.Chats.CreateChat(ctx, &models.GroupChat{SchoolID: schoolID, GradeLevel: grade, Name: seed.name}); err != nil {
			lgr.Error().Err(err).Str("chat", seed.name).Msg("Error creating chat")
			finalErr = errors.Join(finalErr, err)
		}
	}
	return finalErr
}

func containsChat(chats []*models.GroupChat, name string) bool {
	for _, c := range chats {
		if c.Name == name {
			return true
		}
	}
	return false
}

func seedCommunities(ctx context.Context, repos *repositories.Repositories, lgr zerolog.Logger) error {
	current, err := repos.Memberships.ListCommunities(ctx)
	if err != nil {
		return fmt.Errorf("error listing communities: %w", err)
	}
	have := make(map[string]bool, len(current))
	for _, c := range current {
		have[c.Slug] = true
	}

	var finalErr error
	for _, seed := range defaultCommunities {
		if have[seed.slug] {
			continue
		}
		description := seed.description
		community := &models.Community{Name: seed.name, Slug: seed.slug, Description: &description, IsGlobal: true}
		if err := repos.Memberships.CreateCommunity(ctx, community); err != nil {
			lgr.Error().Err(err).Str("community", seed.slug).Msg("Error creating community")
			finalErr = errors.Join(finalErr, err)
		}
	}
	return finalErr
}

func seedChallenges(ctx context.Context, repos *repositories.Repositories, lgr zerolog.Logger) error {
	current, err := repos.Challenges.ListChallenges(ctx)
	if err != nil {
		return fmt.Errorf("error listing challenges: %w", err)
	}
	have := make(map[string]bool, len(current))
	for _, c := range current {
		have[c.Title] = true
	}

	var finalErr error
	for _, seed := range defaultChallenges {
		if have[seed.title] {
			continue
		}
		description := seed.description
		challenge := &models.Challenge{
			Title:       seed.title,
			Description: &description,
			MaxPoints:   seed.maxPoints,
			StartDate:   time.Now().UTC(),
		}
		if err := repos.Challenges.CreateChallenge(ctx, challenge); err != nil {
			lgr.Error().Err(err).Str("challenge", seed.title).Msg("Error creating challenge")
			finalErr = errors.Join(finalErr, err)
		}
	}
	return finalErr
}

func seedRivalry(ctx context.Context, repos *repositories.Repositories, a, b string, lgr zerolog.Logger) error {
	rivalries, err := repos.Challenges.ListRivalries(ctx, a)
	if err != nil {
		return fmt.Errorf("error listing rivalries: %w", err)
	}
	for _, r := range rivalries {
		if (r.SchoolAID == a && r.SchoolBID == b) || (r.SchoolAID == b && r.SchoolBID == a) {
			return nil
		}
	}
	if err := repos.Challenges.CreateRivalry(ctx, &models.Rivalry{SchoolAID: a, SchoolBID: b}); err != nil {
		lgr.Error().Err(err).Msg("Error creating rivalry")
		return err
	}
	return nil
}
