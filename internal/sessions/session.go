package sessions

import (
	"crypto/sha256"
	"encoding/gob"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"Presenca/internal/config"
)

const (
	sessionName = "presenca_session"
	adminKey    = "admin_usuario"
)

// Категории flash-сообщений, как в шаблонах
const (
	Success = "success"
	Danger  = "danger"
	Warning = "warning"
)

type Flash struct {
	Category string
	Message  string
}

func init() {
	gob.Register(Flash{})
}

type Store struct {
	cookies *sessions.CookieStore
}

// New: ключи подписи и шифрования выводятся из секрета. Без секрета (dev)
// ключи случайные, и сессии не переживают перезапуск.
func New(cfg config.SessionConfig, secure bool, log *zap.Logger) *Store {
	var hashKey, encKey []byte
	if cfg.Secret == "" {
		log.Warn("session.secret is empty, using a random key for this process")
		hashKey = securecookie.GenerateRandomKey(32)
		encKey = securecookie.GenerateRandomKey(32)
	} else {
		h := sha256.Sum256([]byte("auth:" + cfg.Secret))
		e := sha256.Sum256([]byte("enc:" + cfg.Secret))
		hashKey, encKey = h[:], e[:]
	}

	cs := sessions.NewCookieStore(hashKey, encKey)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.MaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	}
	return &Store{cookies: cs}
}

// get: битая или чужая кука даёт пустую сессию
func (s *Store) get(r *http.Request) *sessions.Session {
	sess, _ := s.cookies.Get(r, sessionName)
	return sess
}

func (s *Store) SetAdmin(w http.ResponseWriter, r *http.Request, username string) error {
	sess := s.get(r)
	sess.Values[adminKey] = username
	return sess.Save(r, w)
}

func (s *Store) AdminUsername(r *http.Request) (string, bool) {
	v, ok := s.get(r).Values[adminKey].(string)
	return v, ok && v != ""
}

func (s *Store) ClearAdmin(w http.ResponseWriter, r *http.Request) error {
	sess := s.get(r)
	delete(sess.Values, adminKey)
	return sess.Save(r, w)
}

func (s *Store) AddFlash(w http.ResponseWriter, r *http.Request, category, message string) error {
	sess := s.get(r)
	sess.AddFlash(Flash{Category: category, Message: message})
	return sess.Save(r, w)
}

// Flashes забирает накопленные сообщения и удаляет их из сессии
func (s *Store) Flashes(w http.ResponseWriter, r *http.Request) []Flash {
	sess := s.get(r)
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = sess.Save(r, w)

	out := make([]Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(Flash); ok {
			out = append(out, f)
		}
	}
	return out
}
