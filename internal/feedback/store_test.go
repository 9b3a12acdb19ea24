package feedback

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/opsloop/internal/vectorstore"
)

// fakeVectorStore captures upserted points.
type fakeVectorStore struct {
	ensured   []string
	points    []vectorstore.Point
	upsertErr error
}

func (f *fakeVectorStore) EnsureCollection(_ context.Context, collection string, _ uint64) error {
	f.ensured = append(f.ensured, collection)
	return nil
}

func (f *fakeVectorStore) Upsert(_ context.Context, _ string, points []vectorstore.Point) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.points = append(f.points, points...)
	return nil
}

func (f *fakeVectorStore) Query(_ context.Context, _ string, _ []float32, _ vectorstore.QueryParams) ([]vectorstore.ScoredPoint, error) {
	return nil, nil
}

func (f *fakeVectorStore) Close() error { return nil }

// fakeEmbedder returns a fixed vector, or an error when set.
type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) GenerateEmbedding(_ context.Context, _ string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.5, 0.5}, nil
}

func newRedisClient(t *testing.T) redis.UniversalClient {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestSaveFeedback_RoundTrip(t *testing.T) {
	client := newRedisClient(t)
	store, err := NewStore(context.Background(), StoreConfig{Backends: Backends{BackendRedis}}, client, nil, nil, nil)
	require.NoError(t, err)

	record := &Record{
		PlanID:          "plan-1",
		TaskID:          "task-1",
		TaskDescription: "restart deployment web",
		FeedbackType:    string(ModeThumbs),
		Result:          ResultPositive,
	}

	require.NoError(t, store.SaveFeedback(context.Background(), record))
	require.NotEmpty(t, record.FeedbackID)
	require.NotEmpty(t, record.Timestamp)

	got, err := store.GetFeedback(context.Background(), record.FeedbackID)
	require.NoError(t, err)
	assert.Equal(t, record.PlanID, got.PlanID)
	assert.Equal(t, record.TaskID, got.TaskID)
	assert.Equal(t, record.TaskDescription, got.TaskDescription)
	assert.Equal(t, record.FeedbackType, got.FeedbackType)
	assert.Equal(t, record.Result, got.Result)
	assert.Equal(t, record.Timestamp, got.Timestamp)
	assert.Empty(t, got.FreeText)
}

func TestSaveFeedback_EmptyStringDefaults(t *testing.T) {
	client := newRedisClient(t)
	store, err := NewStore(context.Background(), StoreConfig{Backends: Backends{BackendRedis}}, client, nil, nil, nil)
	require.NoError(t, err)

	// Only the result is set; everything else must round-trip as "".
	record := &Record{Result: ResultNeutral}
	require.NoError(t, store.SaveFeedback(context.Background(), record))

	fields, err := client.HGetAll(context.Background(), redisKeyPrefix+record.FeedbackID).Result()
	require.NoError(t, err)

	for _, key := range []string{"plan_id", "task_id", "task_description", "feedback_type", "free_text_feedback"} {
		value, present := fields[key]
		assert.True(t, present, "field %s must be present", key)
		assert.Empty(t, value, "field %s must default to empty string", key)
	}
	assert.Equal(t, string(ResultNeutral), fields["feedback_result"])
	assert.NotEmpty(t, fields["timestamp"])
}

func TestSaveFeedback_FreeTextGoesToQdrant(t *testing.T) {
	client := newRedisClient(t)
	vectors := &fakeVectorStore{}
	store, err := NewStore(context.Background(), StoreConfig{Backends: Backends{BackendBoth}}, client, vectors, &fakeEmbedder{}, nil)
	require.NoError(t, err)
	require.Contains(t, vectors.ensured, DefaultFeedbackCollection)

	record := &Record{
		PlanID:   "plan-1",
		TaskID:   "task-1",
		Result:   ResultPositive,
		FreeText: "the rollout worked but was slow",
	}
	require.NoError(t, store.SaveFeedback(context.Background(), record))

	require.Len(t, vectors.points, 1)
	payload := vectors.points[0].Payload
	assert.Equal(t, "plan-1", payload["plan_id"])
	assert.Equal(t, "task-1", payload["task_id"])
	assert.Equal(t, string(ResultPositive), payload["feedback_result"])
	assert.Equal(t, "the rollout worked but was slow", payload["raw_feedback"])
	assert.NotZero(t, vectors.points[0].ID)
}

func TestSaveFeedback_NoFreeTextSkipsQdrant(t *testing.T) {
	client := newRedisClient(t)
	vectors := &fakeVectorStore{}
	store, err := NewStore(context.Background(), StoreConfig{Backends: Backends{BackendBoth}}, client, vectors, &fakeEmbedder{}, nil)
	require.NoError(t, err)

	record := &Record{TaskID: "task-1", Result: ResultPositive}
	require.NoError(t, store.SaveFeedback(context.Background(), record))

	assert.Empty(t, vectors.points)
}

func TestSaveFeedback_BackendFailuresAreIndependent(t *testing.T) {
	t.Run("qdrant failure does not block redis", func(t *testing.T) {
		client := newRedisClient(t)
		vectors := &fakeVectorStore{upsertErr: errors.New("qdrant down")}
		store, err := NewStore(context.Background(), StoreConfig{Backends: Backends{BackendBoth}}, client, vectors, &fakeEmbedder{}, nil)
		require.NoError(t, err)

		record := &Record{TaskID: "task-1", Result: ResultPositive, FreeText: "worked fine for me"}
		err = store.SaveFeedback(context.Background(), record)
		require.Error(t, err)

		// The redis write still happened.
		got, getErr := store.GetFeedback(context.Background(), record.FeedbackID)
		require.NoError(t, getErr)
		assert.Equal(t, "task-1", got.TaskID)
	})

	t.Run("redis failure does not block qdrant", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })

		vectors := &fakeVectorStore{}
		store, err := NewStore(context.Background(), StoreConfig{Backends: Backends{BackendBoth}}, client, vectors, &fakeEmbedder{}, nil)
		require.NoError(t, err)

		mr.Close() // redis becomes unavailable

		record := &Record{TaskID: "task-1", Result: ResultPositive, FreeText: "rollback was the right call"}
		err = store.SaveFeedback(context.Background(), record)
		require.Error(t, err)

		// The qdrant write still happened.
		require.Len(t, vectors.points, 1)
	})

	t.Run("embedding failure surfaces without masking redis", func(t *testing.T) {
		client := newRedisClient(t)
		vectors := &fakeVectorStore{}
		store, err := NewStore(context.Background(), StoreConfig{Backends: Backends{BackendBoth}}, client, vectors, &fakeEmbedder{err: errors.New("tei down")}, nil)
		require.NoError(t, err)

		record := &Record{TaskID: "task-1", Result: ResultPositive, FreeText: "descriptive comment"}
		err = store.SaveFeedback(context.Background(), record)
		require.Error(t, err)

		_, getErr := store.GetFeedback(context.Background(), record.FeedbackID)
		assert.NoError(t, getErr)
	})
}

func TestGetFeedback_NotFound(t *testing.T) {
	client := newRedisClient(t)
	store, err := NewStore(context.Background(), StoreConfig{Backends: Backends{BackendRedis}}, client, nil, nil, nil)
	require.NoError(t, err)

	_, err = store.GetFeedback(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewStore_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("redis backend without client", func(t *testing.T) {
		_, err := NewStore(ctx, StoreConfig{Backends: Backends{BackendRedis}}, nil, nil, nil, nil)
		assert.Error(t, err)
	})

	t.Run("qdrant backend without vector store", func(t *testing.T) {
		_, err := NewStore(ctx, StoreConfig{Backends: Backends{BackendQdrant}}, nil, nil, &fakeEmbedder{}, nil)
		assert.Error(t, err)
	})

	t.Run("qdrant backend without embedder", func(t *testing.T) {
		_, err := NewStore(ctx, StoreConfig{Backends: Backends{BackendQdrant}}, nil, &fakeVectorStore{}, nil, nil)
		assert.Error(t, err)
	})
}

func TestBackends(t *testing.T) {
	assert.True(t, Backends{BackendRedis}.RedisEnabled())
	assert.False(t, Backends{BackendRedis}.QdrantEnabled())
	assert.True(t, Backends{BackendQdrant}.QdrantEnabled())
	assert.True(t, Backends{BackendBoth}.RedisEnabled())
	assert.True(t, Backends{BackendBoth}.QdrantEnabled())
	assert.False(t, Backends{}.QdrantEnabled())
}
