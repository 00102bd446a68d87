package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessPolicy_Evaluate_TruthTable(t *testing.T) {
	userA := &User{ID: "A", Name: "user_a"}
	userB := &User{ID: "B", Name: "user_b"}
	var anonymous *User

	testCases := []struct {
		name        string
		policy      AccessPolicy
		viewer      *User
		wantGranted bool
		wantReason  string
	}{
		{
			name:        "политика не настроена — доступ открыт",
			policy:      AccessPolicy{},
			viewer:      anonymous,
			wantGranted: true,
			wantReason:  ReasonGranted,
		},
		{
			name:        "anonymous политика пускает анонима",
			policy:      AccessPolicy{Kind: AccessAnonymous},
			viewer:      anonymous,
			wantGranted: true,
			wantReason:  ReasonGranted,
		},
		{
			name:        "аноним не проходит ограниченную политику",
			policy:      AccessPolicy{Kind: AccessBlacklist, IDs: []string{"A"}},
			viewer:      anonymous,
			wantGranted: false,
			wantReason:  ReasonAuthRequired,
		},
		{
			name:        "whitelist пускает участника списка",
			policy:      AccessPolicy{Kind: AccessWhitelist, IDs: []string{"A"}},
			viewer:      userA,
			wantGranted: true,
			wantReason:  ReasonGranted,
		},
		{
			name:        "whitelist не пускает постороннего",
			policy:      AccessPolicy{Kind: AccessWhitelist, IDs: []string{"A"}},
			viewer:      userB,
			wantGranted: false,
			wantReason:  ReasonNotInWhitelist,
		},
		{
			name:        "blacklist не пускает участника списка",
			policy:      AccessPolicy{Kind: AccessBlacklist, IDs: []string{"A"}},
			viewer:      userA,
			wantGranted: false,
			wantReason:  ReasonInBlacklist,
		},
		{
			name:        "blacklist пускает постороннего",
			policy:      AccessPolicy{Kind: AccessBlacklist, IDs: []string{"A"}},
			viewer:      userB,
			wantGranted: true,
			wantReason:  ReasonGranted,
		},
		{
			name:        "пустой blacklist открыт для авторизованных",
			policy:      AccessPolicy{Kind: AccessBlacklist},
			viewer:      userA,
			wantGranted: true,
			wantReason:  ReasonGranted,
		},
		{
			name:        "пустой blacklist закрыт для анонима",
			policy:      AccessPolicy{Kind: AccessBlacklist},
			viewer:      anonymous,
			wantGranted: false,
			wantReason:  ReasonAuthRequired,
		},
		{
			name:        "пустой whitelist закрыт для всех",
			policy:      AccessPolicy{Kind: AccessWhitelist},
			viewer:      userA,
			wantGranted: false,
			wantReason:  ReasonNotInWhitelist,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			granted, reason := tc.policy.Evaluate(tc.viewer)
			assert.Equal(t, tc.wantGranted, granted)
			assert.Equal(t, tc.wantReason, reason)
		})
	}
}

func TestResolveAccessPolicy_WhitelistWins(t *testing.T) {
	// Arrange: документ с обоими взаимоисключающими ключами
	doc := map[string][]string{
		"whitelist": {"A"},
		"blacklist": {"B"},
	}

	// Act
	policy := ResolveAccessPolicy(doc)

	// Assert: blacklist отброшен на этапе конструирования
	assert.Equal(t, AccessWhitelist, policy.Kind)
	assert.Equal(t, []string{"A"}, policy.IDs)
}

func TestResolveAccessPolicy_AnonymousBeatsLists(t *testing.T) {
	policy := ResolveAccessPolicy(map[string][]string{
		"anonymous": {},
		"whitelist": {"A"},
	})
	assert.Equal(t, AccessAnonymous, policy.Kind)

	granted, reason := policy.Evaluate(nil)
	assert.True(t, granted)
	assert.Equal(t, ReasonGranted, reason)
}

func TestResolveAccessPolicy_EmptyDoc(t *testing.T) {
	assert.False(t, ResolveAccessPolicy(nil).Configured())
	assert.False(t, ResolveAccessPolicy(map[string][]string{}).Configured())
}

func TestAccessPolicy_JSONRoundTrip(t *testing.T) {
	// Arrange
	original := AccessPolicy{Kind: AccessBlacklist, IDs: []string{"X", "Y"}}

	// Act
	data, err := json.Marshal(original)
	require.NoError(t, err)

	var restored AccessPolicy
	require.NoError(t, json.Unmarshal(data, &restored))

	// Assert: хранимая форма — {"blacklist": ["X","Y"]}
	assert.JSONEq(t, `{"blacklist": ["X", "Y"]}`, string(data))
	assert.Equal(t, original.Kind, restored.Kind)
	assert.Equal(t, original.IDs, restored.IDs)
}

func TestAccessPolicy_ScanValue(t *testing.T) {
	// Валидация пары Scanner/Valuer на хранимой форме
	var p AccessPolicy
	require.NoError(t, p.Scan([]byte(`{"whitelist": ["A"]}`)))
	assert.Equal(t, AccessWhitelist, p.Kind)

	v, err := AccessPolicy{Kind: AccessAnonymous}.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"anonymous": []}`, string(v.([]byte)))

	// NULL и пустое значение дают ненастроенную политику
	var empty AccessPolicy
	require.NoError(t, empty.Scan(nil))
	assert.False(t, empty.Configured())
}
