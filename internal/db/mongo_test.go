package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"bill_spider/internal/members"
	"bill_spider/internal/models"
)

func TestBuildFilter(t *testing.T) {
	assert.Empty(t, buildFilter(Query{}))

	yes := true
	since := time.Date(2014, time.January, 1, 0, 0, 0, 0, time.UTC)
	f := buildFilter(Query{HasText: &yes, UpdatedSince: since, Limit: 10})
	assert.Equal(t, bson.M{
		"has_text":     true,
		"last_updated": bson.M{"$gte": since},
	}, f)

	no := false
	assert.Equal(t, bson.M{"has_text": false}, buildFilter(Query{HasText: &no}))
}

func TestBillUpdate_DropsID(t *testing.T) {
	bill := &models.Bill{ID: "abc", Name: "Care", Sponsors: []string{"Jane Doe"}}
	bill.SetHTML("<p>x</p>")

	set, err := billUpdate(bill)
	require.NoError(t, err)
	assert.NotContains(t, set, "_id")
	assert.Equal(t, "Care", set["name"])
	assert.Equal(t, "<p>x</p>", set["html"])
	assert.Equal(t, true, set["has_text"])

	// cleared values must still be written so they replace the stored ones
	assert.Contains(t, set, "members")
	assert.Nil(t, set["members"])
	assert.Contains(t, set, "summary")
	assert.Equal(t, "", set["summary"])
}

func TestPlaceholderMember(t *testing.T) {
	now := time.Unix(1400000000, 0)
	ref := placeholderMember("Jane Doe", now)

	assert.Equal(t, members.PlaceholderID("Jane Doe"), ref.ID)
	assert.Equal(t, "Jane Doe", ref.Name)
	assert.Equal(t, "/"+ref.ID+"/jane-doe", ref.Path)
	assert.Equal(t, int64(1400000000), ref.LastUpdated)
}
