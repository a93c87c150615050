package prefs

import (
	"net/http"
	"time"

	"github.com/olimci/bijou/pkg/lang"
)

// CookieMaxAge keeps the cookie for a year.
const CookieMaxAge = 365 * 24 * time.Hour

// CookieStore reads the preference from a request and writes it to the
// matching response.
type CookieStore struct {
	w http.ResponseWriter

	lang lang.Lang
	set  bool
}

func NewCookieStore(w http.ResponseWriter, r *http.Request) *CookieStore {
	s := &CookieStore{w: w}
	if c, err := r.Cookie(Key); err == nil {
		if l, err := lang.Parse(c.Value); err == nil {
			s.lang, s.set = l, true
		}
	}
	return s
}

func (s *CookieStore) Language() (lang.Lang, bool) {
	return s.lang, s.set
}

func (s *CookieStore) SetLanguage(l lang.Lang) error {
	if !l.Valid() {
		return lang.ErrUnsupported
	}
	s.lang, s.set = l, true

	http.SetCookie(s.w, &http.Cookie{
		Name:     Key,
		Value:    string(l),
		Path:     "/",
		MaxAge:   int(CookieMaxAge.Seconds()),
		SameSite: http.SameSiteLaxMode,
		HttpOnly: true,
	})
	return nil
}
