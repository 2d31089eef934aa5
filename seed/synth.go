package seed

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/syssam/erdgen"
	"github.com/syssam/erdgen/schema"
)

// maxUniqueAttempts bounds the retries for unique values before falling back
// to a sequence prefix.
const maxUniqueAttempts = 16

// Synthesizer produces column values. It is not safe for concurrent use.
type Synthesizer struct {
	faker *gofakeit.Faker
	seen  map[string]map[string]bool
	seq   int
}

// NewSynthesizer returns a synthesizer seeded with seed. A zero seed picks a
// random one.
func NewSynthesizer(seed uint64) *Synthesizer {
	return &Synthesizer{
		faker: gofakeit.New(seed),
		seen:  make(map[string]map[string]bool),
	}
}

// Value returns a value for strategy s of table t. pool holds the identifiers
// of the referenced table for ForeignKey strategies.
func (s *Synthesizer) Value(t *schema.Table, st Strategy, pool []any) (any, error) {
	c := st.Column
	switch st.Tag {
	case FirstName:
		return s.unique(t, c, s.faker.FirstName)
	case LastName:
		return s.unique(t, c, s.faker.LastName)
	case Email:
		// Emails are always unique.
		return s.uniqueEmail(t, c)
	case Phone:
		return s.unique(t, c, s.faker.Phone)
	case JobTitle:
		return s.unique(t, c, s.faker.JobTitle)
	case Address:
		return s.unique(t, c, s.faker.Street)
	case Sentence:
		return s.unique(t, c, func() string { return s.faker.Sentence(s.faker.IntRange(4, 10)) })
	case Words:
		return s.unique(t, c, s.words)
	case Text:
		return s.faker.Paragraph(1, 3, 12, " "), nil
	case Decimal:
		if c.Type.Kind == schema.KindInteger {
			return int64(s.faker.IntRange(DecimalMinInt, DecimalMaxInt)), nil
		}
		return s.faker.Price(DecimalMin, DecimalMax), nil
	case Date:
		return s.faker.PastDate().Format(DateLayout), nil
	case Time:
		return s.faker.Date().Format(TimeLayout), nil
	case DateTime:
		return s.faker.PastDate().Truncate(time.Second), nil
	case Integer:
		if c.Primary || c.Unique {
			return s.uniqueInt(t, c), nil
		}
		return s.integer(c), nil
	case Boolean:
		return s.faker.Bool(), nil
	case JSON:
		b, err := json.Marshal(map[string]string{"clave": s.faker.Word(), "valor": s.faker.Word()})
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case ForeignKey:
		if len(pool) == 0 {
			ref := ""
			if st.FK != nil {
				ref = st.FK.RefTable
			}
			return nil, erdgen.NewUnresolvedReferenceError(t.Name, c.Name, ref, "referenced table has no rows to sample")
		}
		return pool[s.faker.IntN(len(pool))], nil
	}
	return nil, fmt.Errorf("seed: unknown strategy %q for column %s.%s", st.Tag, t.Name, c.Name)
}

// words returns 1 to 3 words.
func (s *Synthesizer) words() string {
	n := s.faker.IntRange(MinWords, MaxWords)
	ws := make([]string, n)
	for i := range ws {
		ws[i] = s.faker.Word()
	}
	return strings.Join(ws, " ")
}

func (s *Synthesizer) integer(c *schema.Column) int64 {
	switch c.Type.IntType() {
	case "tinyint":
		if c.Type.Unsigned {
			return int64(s.faker.IntRange(0, 255))
		}
		return int64(s.faker.IntRange(0, 127))
	case "smallint":
		return int64(s.faker.IntRange(0, 32767))
	default:
		return int64(s.faker.IntRange(1, 100000))
	}
}

func (s *Synthesizer) uniqueInt(t *schema.Table, c *schema.Column) int64 {
	seen := s.column(t, c)
	for attempt := 0; ; attempt++ {
		v := s.integer(c)
		if attempt >= maxUniqueAttempts {
			s.seq++
			v = int64(s.seq)
		}
		key := strconv.FormatInt(v, 10)
		if !seen[key] {
			seen[key] = true
			return v
		}
	}
}

// unique fits gen's values to the column and, for unique columns, retries
// until an unused value comes up.
func (s *Synthesizer) unique(t *schema.Table, c *schema.Column, gen func() string) (string, error) {
	if !c.Unique && !c.Primary {
		return Fit(gen(), c.Type.Length), nil
	}
	seen := s.column(t, c)
	for range maxUniqueAttempts {
		v := Fit(gen(), c.Type.Length)
		if !seen[v] {
			seen[v] = true
			return v, nil
		}
	}
	s.seq++
	v := Fit(fmt.Sprintf("%d %s", s.seq, gen()), c.Type.Length)
	if seen[v] {
		return "", fmt.Errorf("seed: cannot produce a unique value for %s.%s", t.Name, c.Name)
	}
	seen[v] = true
	return v, nil
}

func (s *Synthesizer) uniqueEmail(t *schema.Table, c *schema.Column) (string, error) {
	seen := s.column(t, c)
	for range maxUniqueAttempts {
		email := s.faker.Email()
		v := Fit(email, c.Type.Length)
		if seen[v] {
			s.seq++
			v = Fit(fmt.Sprintf("%d.%s", s.seq, email), c.Type.Length)
		}
		if !seen[v] {
			seen[v] = true
			return v, nil
		}
	}
	return "", fmt.Errorf("seed: cannot produce a unique value for %s.%s", t.Name, c.Name)
}

func (s *Synthesizer) column(t *schema.Table, c *schema.Column) map[string]bool {
	key := t.Name + "." + c.Name
	if s.seen[key] == nil {
		s.seen[key] = make(map[string]bool)
	}
	return s.seen[key]
}

// Fit truncates v to at most n characters. A non-positive n keeps v.
func Fit(v string, n int) string {
	if n <= 0 || utf8.RuneCountInString(v) <= n {
		return v
	}
	return string([]rune(v)[:n])
}
