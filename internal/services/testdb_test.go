package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vishwajithmr/agenx-backend-sub000/internal/db"
	"github.com/vishwajithmr/agenx-backend-sub000/internal/models"
	"github.com/vishwajithmr/agenx-backend-sub000/internal/utils"
)

// newTestDB opens a per-test in-memory database. The DSN is keyed on the test
// name so parallel tests never share state through the sqlite cache.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	return conn
}

func newVoteService(t *testing.T, conn *gorm.DB) *VoteService {
	t.Helper()
	scorer := NewScoringService(conn, zerolog.Nop())
	return NewVoteService(conn, scorer)
}

func seedUser(t *testing.T, conn *gorm.DB, name string) *models.User {
	t.Helper()
	user := &models.User{
		Username: name,
		Email:    name + "@example.com",
		Password: "x",
	}
	require.NoError(t, conn.Create(user).Error)
	return user
}

func seedAgent(t *testing.T, conn *gorm.DB, creator *models.User) *models.Agent {
	t.Helper()
	agent := &models.Agent{
		Aid:         utils.RandStringBytesMaskImpr(8),
		CreatorID:   creator.ID,
		Name:        "test agent",
		Description: "an agent used in tests",
	}
	require.NoError(t, conn.Create(agent).Error)
	return agent
}

func seedDiscussion(t *testing.T, conn *gorm.DB, agent *models.Agent, author *models.User) *models.Discussion {
	t.Helper()
	discussion := &models.Discussion{
		Did:            utils.RandStringBytesMaskImpr(8),
		AgentID:        agent.ID,
		UserID:         author.ID,
		Title:          "a discussion title",
		Content:        "some discussion content",
		LastActivityAt: time.Now(),
	}
	require.NoError(t, conn.Create(discussion).Error)
	return discussion
}

func seedReview(t *testing.T, conn *gorm.DB, agent *models.Agent, author *models.User, rating int) *models.Review {
	t.Helper()
	review := &models.Review{
		AgentID: agent.ID,
		UserID:  author.ID,
		Rating:  rating,
		Content: "a review with enough content",
	}
	require.NoError(t, conn.Create(review).Error)
	return review
}
