package identifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		allowed  []string
		wantKind Kind
		wantNorm string
	}{
		{name: "empty", raw: "", wantKind: KindEmpty},
		{name: "whitespace only", raw: "   ", wantKind: KindEmpty},
		{name: "minc id lower case", raw: "mm12a34567", wantKind: KindMinc, wantNorm: "MM12A34567"},
		{name: "minc id padded", raw: "  MM99Z00001 ", wantKind: KindMinc, wantNorm: "MM99Z00001"},
		{name: "minc id too short", raw: "MM12A3456", wantKind: KindInvalid},
		{name: "allowed email", raw: "Admin@MihirMobile.com", wantKind: KindEmail, wantNorm: "admin@mihirmobile.com"},
		{name: "second allowed domain", raw: "ops@vegu.me", wantKind: KindEmail, wantNorm: "ops@vegu.me"},
		{name: "disallowed email", raw: "x@gmail.com", wantKind: KindEmailDisallowed, wantNorm: "x@gmail.com"},
		{name: "custom allow list", raw: "x@gmail.com", allowed: []string{"gmail.com"}, wantKind: KindEmail, wantNorm: "x@gmail.com"},
		{name: "no dot in domain", raw: "x@localhost", wantKind: KindInvalid},
		{name: "space inside email", raw: "a b@vegu.me", wantKind: KindInvalid},
		{name: "garbage", raw: "hello", wantKind: KindInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.raw, tt.allowed)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantNorm, got.Normalized)
		})
	}
}

func TestResult_Message(t *testing.T) {
	assert.Equal(t, MsgInvalid, Classify("", nil).Message())
	assert.Equal(t, MsgInvalid, Classify("nope", nil).Message())
	assert.Equal(t, MsgDisallowed, Classify("a@b.com", nil).Message())
	assert.Empty(t, Classify("MM12A34567", nil).Message())
	assert.True(t, Classify("ops@vegu.me", nil).Accepted())
	assert.False(t, Classify("a@b.com", nil).Accepted())
}
