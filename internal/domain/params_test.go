package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateLimit(t *testing.T) {
	tests := []struct {
		name      string
		input     *string
		want      int
		wantKind  ErrorKind
		wantValue string
	}{
		{name: "absent defaults to 20", input: nil, want: 20},
		{name: "minimum", input: ptr("1"), want: 1},
		{name: "maximum", input: ptr("100"), want: 100},
		{name: "zero", input: ptr("0"), wantKind: KindRequireMinimumOrOver, wantValue: "0"},
		{name: "over maximum", input: ptr("101"), wantKind: KindRequireMaximumOrUnder, wantValue: "101"},
		{name: "not a number", input: ptr("abc"), wantKind: KindNotInteger, wantValue: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ValidateLimit(tt.input)
			if tt.wantKind == "" {
				require.True(t, r.IsSuccess())
				assert.Equal(t, tt.want, r.MustGet().Int())
				return
			}
			require.Len(t, r.Errors(), 1)
			assert.Equal(t, KeyLimit, r.Errors()[0].Key)
			assert.Equal(t, tt.wantKind, r.Errors()[0].Kind)
			assert.Equal(t, tt.wantValue, r.Errors()[0].Value)
		})
	}
}

func TestValidateOffset(t *testing.T) {
	assert.Equal(t, 0, ValidateOffset(nil).MustGet().Int())
	assert.Equal(t, 40, ValidateOffset(ptr("40")).MustGet().Int())
	assert.Equal(t, []ErrorKind{KindRequireMinimumOrOver}, ValidateOffset(ptr("-1")).Errors().Kinds())
	assert.Equal(t, []ErrorKind{KindNotInteger}, ValidateOffset(ptr("1.5")).Errors().Kinds())
}

func TestValidateFeedParametersReportsBothFailures(t *testing.T) {
	r := ValidateFeedParameters(ptr("abc"), ptr("xyz"))

	require.False(t, r.IsSuccess())
	errs := r.Errors()
	require.Len(t, errs, 2)
	assert.Equal(t, ValidationError{Key: KeyLimit, Kind: KindNotInteger, Message: `must be an integer (got "abc")`, Value: "abc"}, errs[0])
	assert.Equal(t, ValidationError{Key: KeyOffset, Kind: KindNotInteger, Message: `must be an integer (got "xyz")`, Value: "xyz"}, errs[1])
}

func TestValidateFilterParameters(t *testing.T) {
	tag := "go"
	p, err := ValidateFilterParameters(&tag, nil, nil, ptr("5"), nil).Get()
	require.NoError(t, err)

	assert.Equal(t, 5, p.Limit.Int())
	assert.Equal(t, 0, p.Offset.Int())
	require.NotNil(t, p.Tag)
	assert.Equal(t, "go", *p.Tag)
	assert.Nil(t, p.Author)
	assert.Nil(t, p.FavoritedByUsername)

	tag = "changed"
	assert.Equal(t, "go", *p.Tag)
}

func TestValidateCommentID(t *testing.T) {
	tests := []struct {
		name     string
		input    *string
		want     CommentID
		wantKind ErrorKind
	}{
		{name: "valid", input: ptr("7"), want: 7},
		{name: "absent", input: nil, wantKind: KindRequired},
		{name: "empty", input: ptr(""), wantKind: KindRequired},
		{name: "not a number", input: ptr("seven"), wantKind: KindNotInteger},
		{name: "zero", input: ptr("0"), wantKind: KindRequireMinimumOrOver},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ValidateCommentID(tt.input)
			if tt.wantKind == "" {
				assert.Equal(t, tt.want, r.MustGet())
				return
			}
			assert.Equal(t, []ErrorKind{tt.wantKind}, r.Errors().Kinds())
		})
	}
}
