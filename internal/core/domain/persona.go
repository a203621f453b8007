package domain

import (
	"time"

	"github.com/google/uuid"
)

// PersonaID uniquely identifies a persona
type PersonaID string

// Persona is a synthetic influencer identity. Only the fields the generators
// read are modeled; the full profile record lives with the platform.
type Persona struct {
	ID                PersonaID `json:"id"`
	Name              string    `json:"name"`
	Bio               string    `json:"bio"`
	PersonalityTraits []string  `json:"personality_traits"`
	Interests         []string  `json:"interests"`
	Characteristics   []string  `json:"characteristics"`
	WritingStyle      string    `json:"writing_style"`
	Niche             string    `json:"niche"`
	Location          string    `json:"location"`
	CreatedAt         time.Time `json:"created_at"`
}

// NewPersonaID generates a compact random persona ID (pers-<12 hex>)
func NewPersonaID() PersonaID {
	id := uuid.New()
	return PersonaID("pers-" + id.String()[24:])
}

// PersonaFromProfile turns a generated profile into a persona record.
// Interests default to the niche the profile was generated for.
func PersonaFromProfile(p ProfileResult, ctx ProfileContext) Persona {
	return Persona{
		ID:                NewPersonaID(),
		Name:              p.Name,
		Bio:               p.Bio,
		PersonalityTraits: p.Personality,
		Interests:         []string{ctx.Niche},
		Characteristics:   p.Characteristics,
		WritingStyle:      "casual",
		Niche:             ctx.Niche,
		Location:          ctx.Location,
		CreatedAt:         time.Now().UTC(),
	}
}

// PostContext builds the generation context for a new post. previous must be
// oldest first.
func (p Persona) PostContext(previous []string) PostContext {
	return PostContext{
		PersonaName:       p.Name,
		Bio:               p.Bio,
		PersonalityTraits: p.PersonalityTraits,
		Interests:         p.Interests,
		WritingStyle:      p.WritingStyle,
		PreviousPosts:     previous,
	}
}

// SharesInterest reports whether the two personas have an interest in common.
func (p Persona) SharesInterest(other Persona) bool {
	seen := make(map[string]struct{}, len(p.Interests))
	for _, i := range p.Interests {
		seen[i] = struct{}{}
	}
	for _, i := range other.Interests {
		if _, ok := seen[i]; ok {
			return true
		}
	}
	return false
}

// BuiltinPersonas returns the default set of personas seeded on first run
func BuiltinPersonas() []Persona {
	now := time.Now().UTC()
	return []Persona{
		{
			ID:                "pers-sarah",
			Name:              "Sarah Johnson",
			Bio:               "Fitness coach helping busy people build sustainable habits.",
			PersonalityTraits: []string{"motivational", "authentic"},
			Interests:         []string{"fitness", "nutrition"},
			Characteristics:   []string{"early riser", "marathon runner"},
			WritingStyle:      "inspirational",
			Niche:             "fitness",
			Location:          "Austin, TX",
			CreatedAt:         now,
		},
		{
			ID:                "pers-marco",
			Name:              "Marco Bellini",
			Bio:               "Home cook sharing weeknight recipes from a tiny kitchen.",
			PersonalityTraits: []string{"warm", "playful"},
			Interests:         []string{"cooking", "nutrition", "travel"},
			Characteristics:   []string{"italian roots", "budget conscious"},
			WritingStyle:      "conversational",
			Niche:             "food",
			Location:          "Milan, Italy",
			CreatedAt:         now,
		},
		{
			ID:                "pers-aiko",
			Name:              "Aiko Tanaka",
			Bio:               "Street photographer chasing light across Tokyo.",
			PersonalityTraits: []string{"observant", "calm"},
			Interests:         []string{"photography", "travel"},
			Characteristics:   []string{"film enthusiast", "night owl"},
			WritingStyle:      "poetic",
			Niche:             "photography",
			Location:          "Tokyo, Japan",
			CreatedAt:         now,
		},
	}
}
