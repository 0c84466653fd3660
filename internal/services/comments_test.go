package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vishwajithmr/agenx-backend-sub000/internal/apperrors"
	"github.com/vishwajithmr/agenx-backend-sub000/internal/models"
)

func newCommentService(t *testing.T, conn *gorm.DB) *CommentService {
	t.Helper()
	return NewCommentService(conn, newVoteService(t, conn))
}

func TestCommentCreateMaintainsCounters(t *testing.T) {
	conn := newTestDB(t)
	comments := newCommentService(t, conn)

	author := seedUser(t, conn, "author")
	replier := seedUser(t, conn, "replier")
	agent := seedAgent(t, conn, author)
	discussion := seedDiscussion(t, conn, agent, author)

	root, err := comments.Create(discussion, author.ID, "top level", "")
	require.NoError(t, err)
	assert.Len(t, root.Cid, 8)
	assert.Nil(t, root.ParentID)

	reply, err := comments.Create(discussion, replier.ID, "a reply", root.Cid)
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, root.ID, *reply.ParentID)

	var d models.Discussion
	require.NoError(t, conn.First(&d, discussion.ID).Error)
	assert.Equal(t, 2, d.CommentCount)
	assert.True(t, d.LastActivityAt.After(discussion.LastActivityAt) || d.LastActivityAt.Equal(discussion.LastActivityAt))

	var parent models.Comment
	require.NoError(t, conn.First(&parent, root.ID).Error)
	assert.Equal(t, 1, parent.ReplyCount)
}

func TestCommentCreateParentValidation(t *testing.T) {
	conn := newTestDB(t)
	comments := newCommentService(t, conn)

	author := seedUser(t, conn, "author")
	agent := seedAgent(t, conn, author)
	d1 := seedDiscussion(t, conn, agent, author)
	d2 := seedDiscussion(t, conn, agent, author)

	_, err := comments.Create(d1, author.ID, "orphan reply", "nosuchid")
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	other, err := comments.Create(d2, author.ID, "in another discussion", "")
	require.NoError(t, err)

	_, err = comments.Create(d1, author.ID, "cross-discussion reply", other.Cid)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	// Replying under a deleted comment is NotFound.
	require.NoError(t, comments.SoftDelete(other.Cid, author.ID))
	_, err = comments.Create(d2, author.ID, "reply to deleted", other.Cid)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestCommentSoftDeleteHidesSubtree(t *testing.T) {
	conn := newTestDB(t)
	comments := newCommentService(t, conn)

	author := seedUser(t, conn, "author")
	agent := seedAgent(t, conn, author)
	discussion := seedDiscussion(t, conn, agent, author)

	a, err := comments.Create(discussion, author.ID, "A", "")
	require.NoError(t, err)
	b, err := comments.Create(discussion, author.ID, "B", a.Cid)
	require.NoError(t, err)
	_, err = comments.Create(discussion, author.ID, "C", b.Cid)
	require.NoError(t, err)

	require.NoError(t, comments.SoftDelete(b.Cid, author.ID))

	tree, err := comments.BuildTree(discussion, 0)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, a.Cid, tree[0].Cid)
	// B is gone, and C hangs off B so it disappears with it.
	assert.Empty(t, tree[0].Replies)

	// The row survives with blanked content.
	var row models.Comment
	require.NoError(t, conn.First(&row, b.ID).Error)
	assert.True(t, row.Deleted)
	assert.Empty(t, row.Content)

	// Deleting someone else's comment is Forbidden.
	stranger := seedUser(t, conn, "stranger")
	err = comments.SoftDelete(a.Cid, stranger.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
}

func TestBuildTreeShapeAndOrder(t *testing.T) {
	conn := newTestDB(t)
	votes := newVoteService(t, conn)
	comments := NewCommentService(conn, votes)

	author := seedUser(t, conn, "author")
	voter := seedUser(t, conn, "voter")
	agent := seedAgent(t, conn, author)
	discussion := seedDiscussion(t, conn, agent, author)

	first, err := comments.Create(discussion, author.ID, "first root", "")
	require.NoError(t, err)
	second, err := comments.Create(discussion, voter.ID, "second root", "")
	require.NoError(t, err)
	child, err := comments.Create(discussion, voter.ID, "child of first", first.Cid)
	require.NoError(t, err)
	grandchild, err := comments.Create(discussion, author.ID, "grandchild", child.Cid)
	require.NoError(t, err)

	// Upvote the second root so it sorts ahead of the first.
	_, err = votes.CastVote(voter.ID, models.VoteTargetDiscussion, discussion.ID, 1)
	require.NoError(t, err)
	_, err = votes.CastVote(author.ID, models.VoteTargetComment, second.ID, 1)
	require.NoError(t, err)

	tree, err := comments.BuildTree(discussion, voter.ID)
	require.NoError(t, err)
	require.Len(t, tree, 2)

	assert.Equal(t, second.Cid, tree[0].Cid)
	assert.Equal(t, 1, tree[0].Score)
	assert.Equal(t, first.Cid, tree[1].Cid)

	require.Len(t, tree[1].Replies, 1)
	assert.Equal(t, child.Cid, tree[1].Replies[0].Cid)
	require.Len(t, tree[1].Replies[0].Replies, 1)
	assert.Equal(t, grandchild.Cid, tree[1].Replies[0].Replies[0].Cid)

	// is_op marks the discussion author, not the viewer.
	assert.False(t, tree[0].IsOP)
	assert.True(t, tree[1].IsOP)
	assert.True(t, tree[1].Replies[0].Replies[0].IsOP)

	// The viewer's own vote comes back on the voted comment.
	assert.Equal(t, 0, tree[0].UserVote)
	viewerTree, err := comments.BuildTree(discussion, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, viewerTree[0].UserVote)
}

func TestListLayerSortAndPaging(t *testing.T) {
	conn := newTestDB(t)
	comments := newCommentService(t, conn)

	author := seedUser(t, conn, "author")
	agent := seedAgent(t, conn, author)
	discussion := seedDiscussion(t, conn, agent, author)

	var cids []string
	for i := 0; i < 5; i++ {
		c, err := comments.Create(discussion, author.ID, "comment content", "")
		require.NoError(t, err)
		cids = append(cids, c.Cid)
	}
	// A reply must not show up in the top layer.
	_, err := comments.Create(discussion, author.ID, "a reply", cids[0])
	require.NoError(t, err)

	views, total, err := comments.ListLayer(discussion, nil, SortOldest, 0, 3, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, views, 3)
	assert.Equal(t, cids[0], views[0].Cid)
	assert.Empty(t, views[0].Replies)
	assert.Equal(t, 1, views[0].ReplyCount)

	views, _, err = comments.ListLayer(discussion, nil, SortOldest, 3, 3, 0)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, cids[3], views[0].Cid)

	// Descend one level.
	var parent models.Comment
	require.NoError(t, conn.Where("cid = ?", cids[0]).First(&parent).Error)
	views, total, err = comments.ListLayer(discussion, &parent.ID, SortNewest, 0, 20, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, views, 1)
}

func TestParseSort(t *testing.T) {
	assert.Equal(t, SortNewest, ParseSort(""))
	assert.Equal(t, SortNewest, ParseSort("bogus"))
	assert.Equal(t, SortOldest, ParseSort("oldest"))
	assert.Equal(t, SortTop, ParseSort("top"))
}
