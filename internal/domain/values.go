package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Field keys used in validation errors.
const (
	KeyEmail       = "email"
	KeyUsername    = "username"
	KeyPassword    = "password"
	KeyBio         = "bio"
	KeyImage       = "image"
	KeyTitle       = "title"
	KeySlug        = "slug"
	KeyDescription = "description"
	KeyBody        = "body"
	KeyTag         = "tag"
	KeyCommentID   = "id"
	KeyLimit       = "limit"
	KeyOffset      = "offset"
)

// Length limits, counted in characters.
const (
	UsernameMinLength = 4
	UsernameMaxLength = 32
	PasswordMinLength = 8
	PasswordMaxLength = 32
	BioMaxLength      = 512
	ImageMaxLength    = 512
	TitleMaxLength    = 32
	SlugMaxLength     = 32
	TagMaxLength      = 16
)

var formats = validator.New()

// textRule is the ordered rule set for a string value object:
// required, then min length, then max length. The first failure wins.
type textRule struct {
	key string
	// allowEmpty means only an absent value fails Required.
	allowEmpty bool
	min        int
	max        int
}

func (r textRule) check(raw *string) (string, []ValidationError) {
	if raw == nil {
		return "", []ValidationError{required(r.key)}
	}
	s := *raw
	if !r.allowEmpty && strings.TrimSpace(s) == "" {
		return "", []ValidationError{required(r.key)}
	}
	n := utf8.RuneCountInString(s)
	if r.min > 0 && n < r.min {
		return "", []ValidationError{tooShort(r.key, s, r.min)}
	}
	if r.max > 0 && n > r.max {
		return "", []ValidationError{tooLong(r.key, s, r.max)}
	}
	return s, nil
}

func validateText[T any](rule textRule, raw *string, wrap func(string) T) Result[T] {
	s, errs := rule.check(raw)
	if len(errs) > 0 {
		return Failure[T](errs...)
	}
	return Success(wrap(s))
}

// Email is a syntactically valid email address.
type Email struct{ value string }

// ValidateEmail checks: required, then format.
func ValidateEmail(raw *string) Result[Email] {
	return Chain(validateText(textRule{key: KeyEmail}, raw, func(s string) string { return s }),
		func(s string) Result[Email] {
			if err := formats.Var(s, "required,email"); err != nil {
				return Failure[Email](invalidFormat(KeyEmail, s))
			}
			return Success(Email{value: s})
		})
}

// EmailFromTrusted wraps a value read from storage without re-validation.
func EmailFromTrusted(v string) Email { return Email{value: v} }

func (e Email) String() string { return e.value }

// Username is a 4-32 character user handle.
type Username struct{ value string }

func ValidateUsername(raw *string) Result[Username] {
	rule := textRule{key: KeyUsername, min: UsernameMinLength, max: UsernameMaxLength}
	return validateText(rule, raw, func(s string) Username { return Username{value: s} })
}

func UsernameFromTrusted(v string) Username { return Username{value: v} }

func (u Username) String() string { return u.value }

// Password is a plain-text password that satisfies the length rules.
// It only lives for the duration of a register or login request.
type Password struct{ value string }

func ValidatePassword(raw *string) Result[Password] {
	rule := textRule{key: KeyPassword, min: PasswordMinLength, max: PasswordMaxLength}
	return validateText(rule, raw, func(s string) Password { return Password{value: s} })
}

func (p Password) String() string { return p.value }

// Bio is a free-text profile description. Empty is allowed.
type Bio struct{ value string }

func ValidateBio(raw *string) Result[Bio] {
	rule := textRule{key: KeyBio, allowEmpty: true, max: BioMaxLength}
	return validateText(rule, raw, func(s string) Bio { return Bio{value: s} })
}

func BioFromTrusted(v string) Bio { return Bio{value: v} }

func (b Bio) String() string { return b.value }

// Image is a profile image URL. Empty is allowed.
type Image struct{ value string }

func ValidateImage(raw *string) Result[Image] {
	rule := textRule{key: KeyImage, allowEmpty: true, max: ImageMaxLength}
	return validateText(rule, raw, func(s string) Image { return Image{value: s} })
}

func ImageFromTrusted(v string) Image { return Image{value: v} }

func (i Image) String() string { return i.value }

// Title is an article title.
type Title struct{ value string }

func ValidateTitle(raw *string) Result[Title] {
	rule := textRule{key: KeyTitle, max: TitleMaxLength}
	return validateText(rule, raw, func(s string) Title { return Title{value: s} })
}

func TitleFromTrusted(v string) Title { return Title{value: v} }

func (t Title) String() string { return t.value }

// Slug identifies an article in URLs.
type Slug struct{ value string }

func ValidateSlug(raw *string) Result[Slug] {
	rule := textRule{key: KeySlug, max: SlugMaxLength}
	return validateText(rule, raw, func(s string) Slug { return Slug{value: s} })
}

// NewSlug generates a random slug of 32 lowercase alphanumeric characters.
func NewSlug() Slug {
	return Slug{value: strings.ReplaceAll(uuid.NewString(), "-", "")}
}

func SlugFromTrusted(v string) Slug { return Slug{value: v} }

func (s Slug) String() string { return s.value }

// Description is an article summary.
type Description struct{ value string }

func ValidateDescription(raw *string) Result[Description] {
	return validateText(textRule{key: KeyDescription}, raw, func(s string) Description { return Description{value: s} })
}

func DescriptionFromTrusted(v string) Description { return Description{value: v} }

func (d Description) String() string { return d.value }

// ArticleBody is the markdown body of an article.
type ArticleBody struct{ value string }

func ValidateArticleBody(raw *string) Result[ArticleBody] {
	return validateText(textRule{key: KeyBody}, raw, func(s string) ArticleBody { return ArticleBody{value: s} })
}

func ArticleBodyFromTrusted(v string) ArticleBody { return ArticleBody{value: v} }

func (b ArticleBody) String() string { return b.value }

// Tag is a short article label.
type Tag struct{ value string }

func ValidateTag(raw *string) Result[Tag] {
	rule := textRule{key: KeyTag, max: TagMaxLength}
	return validateText(rule, raw, func(s string) Tag { return Tag{value: s} })
}

func TagFromTrusted(v string) Tag { return Tag{value: v} }

func (t Tag) String() string { return t.value }

// ValidateTagList validates every tag, collecting all failures in list
// order. An absent list is an empty list.
func ValidateTagList(raw []string) Result[[]Tag] {
	results := make([]Result[Tag], len(raw))
	for i := range raw {
		results[i] = ValidateTag(&raw[i])
	}
	return Sequence(results)
}

// TagsFromTrusted wraps stored tag names.
func TagsFromTrusted(vs []string) []Tag {
	tags := make([]Tag, len(vs))
	for i, v := range vs {
		tags[i] = TagFromTrusted(v)
	}
	return tags
}

// TagStrings unwraps a tag list.
func TagStrings(tags []Tag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.value
	}
	return out
}

// CommentBody is the text of a comment.
type CommentBody struct{ value string }

func ValidateCommentBody(raw *string) Result[CommentBody] {
	return validateText(textRule{key: KeyBody}, raw, func(s string) CommentBody { return CommentBody{value: s} })
}

func CommentBodyFromTrusted(v string) CommentBody { return CommentBody{value: v} }

func (c CommentBody) String() string { return c.value }
