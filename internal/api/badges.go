package badges

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	interf "github.com/glkeru/loyalty/badges/internal/interfaces"
	models "github.com/glkeru/loyalty/badges/internal/models"
	services "github.com/glkeru/loyalty/badges/internal/services"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Хранилища, которые читает API
type Store interface {
	interf.AwardStore
	interf.CodeStore
	interf.ProfileStore
}

type BadgesHandler struct {
	router    *mux.Router
	evaluator *services.Evaluator
	registry  *services.Registry
	settings  *services.SettingsStore
	store     Store
	logger    *zap.Logger
}

type EventResponse struct {
	NewBadges []models.GrantedBadge `json:"newBadges"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type ArchetypeRequest struct {
	Archetype models.Archetype `json:"archetype"`
}

type SettingRequest struct {
	Value string `json:"value"`
}

type SettingsResponse struct {
	Enabled               bool `json:"badgesEnabled"`
	ShieldSuppressesReset bool `json:"shieldSuppressesReset"`
	GraceWindowDays       int  `json:"graceWindowDays"`
	CodeValidityDays      int  `json:"codeValidityDays"`
	DedupWindowMinutes    int  `json:"dedupWindowMinutes"`
}

type ReloadResponse struct {
	Badges   int       `json:"badges"`
	LoadedAt time.Time `json:"loadedAt"`
}

func NewHandler(evaluator *services.Evaluator, registry *services.Registry, settings *services.SettingsStore, store Store, logger *zap.Logger) *BadgesHandler {
	router := mux.NewRouter()
	handler := &BadgesHandler{router, evaluator, registry, settings, store, logger}
	router.Use(MiddlewareLog())
	router.HandleFunc("/events", handler.EventHandler).Methods(http.MethodPost)
	router.HandleFunc("/badges", handler.GetBadgesHandler).Methods(http.MethodGet)
	router.HandleFunc("/users/{id}/badges", handler.GetUserBadgesHandler).Methods(http.MethodGet)
	router.HandleFunc("/users/{id}/codes", handler.GetUserCodesHandler).Methods(http.MethodGet)
	router.HandleFunc("/users/{id}/archetype", handler.SetArchetypeHandler).Methods(http.MethodPut)
	router.HandleFunc("/settings", handler.GetSettingsHandler).Methods(http.MethodGet)
	router.HandleFunc("/settings/{key}", handler.SetSettingHandler).Methods(http.MethodPut)
	router.HandleFunc("/admin/reload", handler.ReloadHandler).Methods(http.MethodPost)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return handler
}

func (r *BadgesHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}

// Обертка с трассировкой
func (r *BadgesHandler) Traced() http.Handler {
	return otelhttp.NewHandler(r, "badges")
}

func (r *BadgesHandler) Log(msg string, service string, err error) {
	r.logger.Error(msg,
		zap.String("service", service),
		zap.Error(err),
	)
}

func (r *BadgesHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	j, err := json.Marshal(v)
	if err != nil {
		r.Log("Marshal", "writeJSON", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(j)
}

func (r *BadgesHandler) writeError(w http.ResponseWriter, status int, kind string, err error) {
	r.writeJSON(w, status, ErrorResponse{Error: err.Error(), Kind: kind})
}

// Обработка события
func (r *BadgesHandler) EventHandler(w http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		r.Log("Get request body", "EventHandler", err)
		r.writeError(w, http.StatusBadRequest, "InvalidEvent", err)
		return
	}
	defer req.Body.Close()

	event := models.EventRequest{}
	if err := json.Unmarshal(body, &event); err != nil {
		r.writeError(w, http.StatusBadRequest, "InvalidEvent", err)
		return
	}

	granted, err := r.evaluator.Evaluate(req.Context(), event)
	if granted == nil {
		granted = []models.GrantedBadge{}
	}
	switch {
	case err == nil:
		r.writeJSON(w, http.StatusOK, EventResponse{granted})
	case errors.Is(err, models.ErrInvalidEvent):
		r.writeError(w, http.StatusBadRequest, "InvalidEvent", err)
	case errors.Is(err, models.ErrInvalidPayload):
		r.writeError(w, http.StatusBadRequest, "InvalidPayload", err)
	case errors.Is(err, models.ErrStorage):
		r.Log("Evaluate", "EventHandler", err)
		// зафиксированные бейджи тоже отдаем, повтор с тем же eventId продолжит обработку
		r.writeJSON(w, http.StatusServiceUnavailable, struct {
			ErrorResponse
			NewBadges []models.GrantedBadge `json:"newBadges"`
		}{ErrorResponse{Error: err.Error(), Kind: "StorageError"}, granted})
	default:
		r.Log("Evaluate", "EventHandler", err)
		r.writeError(w, http.StatusInternalServerError, "Internal", err)
	}
}

// Каталог бейджей, опционально по архетипу
func (r *BadgesHandler) GetBadgesHandler(w http.ResponseWriter, req *http.Request) {
	archetype := req.URL.Query().Get("archetype")
	var defs []models.BadgeDefinition
	if req.URL.Query().Has("archetype") {
		defs = r.registry.DefinitionsForArchetype(models.Archetype(archetype))
	} else {
		defs = r.registry.AllDefinitions()
	}
	if defs == nil {
		defs = []models.BadgeDefinition{}
	}
	r.writeJSON(w, http.StatusOK, defs)
}

// Бейджи пользователя
func (r *BadgesHandler) GetUserBadgesHandler(w http.ResponseWriter, req *http.Request) {
	user := mux.Vars(req)["id"]
	awards, err := r.store.UserAwards(req.Context(), user)
	if err != nil {
		r.Log("DB get", "GetUserBadgesHandler", err)
		r.writeError(w, http.StatusServiceUnavailable, "StorageError", err)
		return
	}
	if awards == nil {
		awards = []models.UserBadgeAward{}
	}
	r.writeJSON(w, http.StatusOK, awards)
}

// Коды скидок пользователя, ?active=true - только непросроченные
func (r *BadgesHandler) GetUserCodesHandler(w http.ResponseWriter, req *http.Request) {
	user := mux.Vars(req)["id"]
	codes, err := r.store.UserCodes(req.Context(), user)
	if err != nil {
		r.Log("DB get", "GetUserCodesHandler", err)
		r.writeError(w, http.StatusServiceUnavailable, "StorageError", err)
		return
	}
	result := make([]models.DiscountCode, 0, len(codes))
	activeOnly := req.URL.Query().Get("active") == "true"
	now := time.Now()
	for _, c := range codes {
		if activeOnly && c.Expired(now) {
			continue
		}
		result = append(result, c)
	}
	r.writeJSON(w, http.StatusOK, result)
}

// Установить архетип пользователя
func (r *BadgesHandler) SetArchetypeHandler(w http.ResponseWriter, req *http.Request) {
	user := mux.Vars(req)["id"]
	body := ArchetypeRequest{}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		r.writeError(w, http.StatusBadRequest, "InvalidRequest", err)
		return
	}
	defer req.Body.Close()

	if err := r.store.SetArchetype(req.Context(), user, body.Archetype); err != nil {
		r.Log("SetArchetype", "SetArchetypeHandler", err)
		r.writeError(w, http.StatusServiceUnavailable, "StorageError", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func settingsView(s models.Settings) SettingsResponse {
	return SettingsResponse{
		Enabled:               s.Enabled,
		ShieldSuppressesReset: s.ShieldSuppressesReset,
		GraceWindowDays:       s.GraceWindowDays,
		CodeValidityDays:      int(s.CodeValidity / (24 * time.Hour)),
		DedupWindowMinutes:    int(s.DedupWindow / time.Minute),
	}
}

func (r *BadgesHandler) GetSettingsHandler(w http.ResponseWriter, req *http.Request) {
	r.writeJSON(w, http.StatusOK, settingsView(r.settings.Current()))
}

// Изменить настройку
func (r *BadgesHandler) SetSettingHandler(w http.ResponseWriter, req *http.Request) {
	key := mux.Vars(req)["key"]
	body := SettingRequest{}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		r.writeError(w, http.StatusBadRequest, "InvalidRequest", err)
		return
	}
	defer req.Body.Close()

	settings, err := r.settings.Update(req.Context(), key, body.Value)
	switch {
	case err == nil:
		r.writeJSON(w, http.StatusOK, settingsView(settings))
	case errors.Is(err, models.ErrUnknownSetting):
		r.writeError(w, http.StatusNotFound, "UnknownSetting", err)
	case errors.Is(err, models.ErrStorage):
		r.Log("Update", "SetSettingHandler", err)
		r.writeError(w, http.StatusServiceUnavailable, "StorageError", err)
	default:
		r.writeError(w, http.StatusBadRequest, "InvalidSetting", err)
	}
}

// Перечитать каталог и настройки
func (r *BadgesHandler) ReloadHandler(w http.ResponseWriter, req *http.Request) {
	if err := r.registry.Reload(req.Context()); err != nil {
		r.writeError(w, http.StatusUnprocessableEntity, "InvalidCatalog", err)
		return
	}
	if err := r.settings.Reload(req.Context()); err != nil {
		r.Log("Reload", "ReloadHandler", err)
		r.writeError(w, http.StatusServiceUnavailable, "StorageError", err)
		return
	}
	catalog := r.registry.Snapshot()
	r.writeJSON(w, http.StatusOK, ReloadResponse{Badges: catalog.Len(), LoadedAt: catalog.LoadedAt})
}
