package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ajmal017/dailyScript/internal/api/handlers"
	"github.com/ajmal017/dailyScript/internal/api/middleware"
	"github.com/ajmal017/dailyScript/pkg/utils"
)

// Dependencies зависимости HTTP слоя
type Dependencies struct {
	Engine       handlers.TradeEngine
	Fills        handlers.FillStore // nil если персистентность выключена
	APITokenHash string             // bcrypt-хеш токена; пустой = API открыт
	Log          *utils.Logger
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Структура маршрутов:
//
// /api/v1/
//
//	└── /pairs/
//	    ├── POST / - постановка парной сделки
//	    ├── GET /running - активные сделки
//	    ├── GET /finished - завершённые сделки
//	    ├── GET /{id} - снимок сделки
//	    ├── DELETE /{id} - принудительное завершение
//	    └── GET /{id}/fills - сохранённые исполнения
//
// /metrics - Prometheus метрики
// /health  - liveness проверка
//
// Middleware применяется в следующем порядке:
// 1. Recovery (для всех маршрутов)
// 2. Logging (для всех маршрутов)
// 3. CORS (для всех маршрутов)
// 4. Auth (только для /api/v1)
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	log := deps.Log
	if log == nil {
		log = utils.L()
	}

	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logging(log))
	router.Use(middleware.CORS)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Auth(deps.APITokenHash))

	if deps.Engine != nil {
		pairHandler := handlers.NewPairHandler(deps.Engine, deps.Fills)
		api.HandleFunc("/pairs", pairHandler.PlacePair).Methods("POST")
		api.HandleFunc("/pairs/running", pairHandler.GetRunning).Methods("GET")
		api.HandleFunc("/pairs/finished", pairHandler.GetFinished).Methods("GET")
		api.HandleFunc("/pairs/{id}", pairHandler.GetPair).Methods("GET")
		api.HandleFunc("/pairs/{id}", pairHandler.CancelPair).Methods("DELETE")
		api.HandleFunc("/pairs/{id}/fills", pairHandler.GetPairFills).Methods("GET")
	}

	// Метрики без auth: закрываются на уровне сети
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	return router
}
