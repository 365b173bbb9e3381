package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/studybot/quizcore/pkg/util"
)

// Custom identifier wire formats. These are stored verbatim inside Discord
// messages, so changing them orphans every button posted by a previous
// release.
//
//	inline:   pui:{base64-state}:{handler_name}
//	database: pui:db:{handler_name}:{unique_suffix}
//	memory:   pui:mem:{handler_name}:{unique_suffix}
const (
	ButtonPrefix   = "pui"
	databaseMarker = "db"
	memoryMarker   = "mem"

	inlinePrefix   = ButtonPrefix + ":"
	databasePrefix = ButtonPrefix + ":" + databaseMarker + ":"
	memoryPrefix   = ButtonPrefix + ":" + memoryMarker + ":"
)

// CustomIDMaxLength is the Discord limit for component custom identifiers.
const CustomIDMaxLength = 100

// ErrIdentifierTooLong is returned when a constructed custom identifier
// exceeds the Discord limit. It is a construction-time failure; identifiers
// are never silently truncated.
var ErrIdentifierTooLong = errors.New("custom identifier exceeds length limit")

// IdentifierKind discriminates the three custom identifier layouts.
type IdentifierKind int

const (
	IdentifierUnknown IdentifierKind = iota
	IdentifierInline
	IdentifierDatabase
	IdentifierMemory
)

// Identifier is a parsed custom identifier.
type Identifier struct {
	Kind    IdentifierKind
	Handler string
	// Encoded is the base64 state segment. Set only for inline identifiers.
	Encoded string
	// Suffix is the unique suffix segment. Set for database and memory identifiers.
	Suffix string
}

// InlineCustomID builds an inline-mode identifier from an encoded state.
func InlineCustomID(encoded, handlerName string) (string, error) {
	id := inlinePrefix + encoded + ":" + handlerName
	if len(id) > CustomIDMaxLength {
		return "", fmt.Errorf("%w: %d > %d", ErrIdentifierTooLong, len(id), CustomIDMaxLength)
	}
	return id, nil
}

// DatabaseCustomID builds a database-mode identifier with a fresh unique
// suffix. The suffix combines the owner, a millisecond timestamp, and a
// random component so rapid repeated calls never collide.
func DatabaseCustomID(handlerName string, ownerID int64) (string, error) {
	id := databasePrefix + handlerName + ":" + uniqueSuffix(ownerID)
	if len(id) > CustomIDMaxLength {
		return "", fmt.Errorf("%w: %d > %d", ErrIdentifierTooLong, len(id), CustomIDMaxLength)
	}
	return id, nil
}

// MemoryCustomID builds a memory-mode identifier with a fresh unique suffix.
func MemoryCustomID(handlerName string, ownerID int64) (string, error) {
	id := memoryPrefix + handlerName + ":" + uniqueSuffix(ownerID)
	if len(id) > CustomIDMaxLength {
		return "", fmt.Errorf("%w: %d > %d", ErrIdentifierTooLong, len(id), CustomIDMaxLength)
	}
	return id, nil
}

func uniqueSuffix(ownerID int64) string {
	millis := time.Now().UnixMilli()
	random := uuid.NewString()[:8]
	return strconv.FormatInt(ownerID, 10) + "_" + strconv.FormatInt(millis, 10) + "_" + random
}

// ParseIdentifier splits a raw custom identifier into its segments. It
// returns Kind == IdentifierUnknown for identifiers that do not carry the
// persistent UI prefix; those belong to other component systems and are not
// an error.
func ParseIdentifier(customID string) Identifier {
	if rest, ok := util.TrimPrefixIf(customID, databasePrefix); ok {
		handler, suffix, found := strings.Cut(rest, ":")
		if !found || handler == "" || suffix == "" {
			return Identifier{Kind: IdentifierUnknown}
		}
		return Identifier{Kind: IdentifierDatabase, Handler: handler, Suffix: suffix}
	}

	if rest, ok := util.TrimPrefixIf(customID, memoryPrefix); ok {
		handler, suffix, found := strings.Cut(rest, ":")
		if !found || handler == "" || suffix == "" {
			return Identifier{Kind: IdentifierUnknown}
		}
		return Identifier{Kind: IdentifierMemory, Handler: handler, Suffix: suffix}
	}

	if rest, ok := util.TrimPrefixIf(customID, inlinePrefix); ok {
		encoded, handler, found := strings.Cut(rest, ":")
		if !found || encoded == "" || handler == "" {
			return Identifier{Kind: IdentifierUnknown}
		}
		return Identifier{Kind: IdentifierInline, Handler: handler, Encoded: encoded}
	}

	return Identifier{Kind: IdentifierUnknown}
}

// IsPersistentCustomID reports whether a custom identifier belongs to the
// persistent UI system at all.
func IsPersistentCustomID(customID string) bool {
	return util.HasPrefix(customID, inlinePrefix)
}
