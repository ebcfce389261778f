package flexerrors

import "errors"

// Common errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalidInput     = errors.New("invalid input")
	ErrTooLarge         = errors.New("file too large")
	ErrRateLimited      = errors.New("rate limited")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrQueuedOffline    = errors.New("message queued for offline sync")
)

// Chat rule violations carry the exact Dutch strings shown to end users.
var (
	ErrGeenToestemming        = errors.New("Geen toestemming om dit bericht te wijzigen")
	ErrBewerkingstijdVerlopen = errors.New("Bewerkingstijd verlopen: berichten kunnen tot 15 minuten na verzending worden bewerkt")
	ErrBestandNietGevonden    = errors.New("Bestand niet gevonden")
	ErrBestandTeGroot         = errors.New("Bestand te groot voor deze categorie")
	ErrBestandstypeOngeldig   = errors.New("Bestandstype niet toegestaan")
	ErrGesprekGearchiveerd    = errors.New("Gesprek is gearchiveerd")
)
