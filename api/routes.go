package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/project-ledger/internal/auth"
	"github.com/carson-networks/project-ledger/internal/handlers/v1/account"
	"github.com/carson-networks/project-ledger/internal/handlers/v1/fixedcost"
	"github.com/carson-networks/project-ledger/internal/handlers/v1/project"
	"github.com/carson-networks/project-ledger/internal/handlers/v1/reference"
	"github.com/carson-networks/project-ledger/internal/handlers/v1/report"
	"github.com/carson-networks/project-ledger/internal/handlers/v1/status"
	"github.com/carson-networks/project-ledger/internal/handlers/v1/transaction"
	"github.com/carson-networks/project-ledger/internal/handlers/v1/transfer"
	"github.com/carson-networks/project-ledger/internal/logging"
	"github.com/carson-networks/project-ledger/internal/service"
	"github.com/carson-networks/project-ledger/internal/storage"
)

type registrar interface {
	Register(api huma.API)
}

type Rest struct {
	Logger        *logrus.Logger
	Port          string
	Service       *service.Service
	Tokens        *auth.Tokens
	Users         storage.UserReader
	DB            status.Pinger
	AttachmentDir string

	server *http.Server
}

// Handler builds the full route table. Every /v1 operation requires a bearer
// token; /status and /attachments do not.
func (r *Rest) Handler() http.Handler {
	mux := http.NewServeMux()

	statusHandler := status.NewHandler(r.DB)
	mux.HandleFunc("/status", logging.LoggingWrapper("Status", r.Logger, statusHandler.Handler))
	if r.AttachmentDir != "" {
		mux.Handle("/attachments/", http.StripPrefix("/attachments/", http.FileServer(http.Dir(r.AttachmentDir))))
	}

	api := humago.New(mux, huma.DefaultConfig("Project Ledger", "1.0.0"))
	api.UseMiddleware(logging.HumaMiddleware(r.Logger))
	api.UseMiddleware(auth.Middleware(api, r.Tokens, r.Users, r.Logger))

	svc := r.Service
	handlers := []registrar{
		transaction.NewCreateTransactionHandler(svc.Transaction),
		transaction.NewGetTransactionHandler(svc.Transaction),
		transaction.NewListTransactionsHandler(svc.Transaction),
		transaction.NewEditTransactionHandler(svc.Transaction),
		transaction.NewDecideTransactionHandler(svc.Transaction),

		account.NewCreateAccountHandler(svc.Account),
		account.NewGetAccountHandler(svc.Account),
		account.NewListAccountsHandler(svc.Account),
		account.NewLockAccountHandler(svc.Account),
		account.NewVerifyBalanceHandler(svc.Account),

		transfer.NewHandler(svc.Transfer),
		report.NewHandler(svc.Report),

		project.NewCreateProjectHandler(svc.Project),
		project.NewGetProjectHandler(svc.Project),
		project.NewSetStatusHandler(svc.Project),
		project.NewMembersHandler(svc.Project),
		project.NewAccessHandler(svc.Project),

		reference.NewFundsHandler(svc.Reference),
		reference.NewCategoriesHandler(svc.Reference),
		reference.NewUsersHandler(svc.Reference, r.Tokens),
		reference.NewActivityHandler(svc.Reference),

		fixedcost.NewCreateFixedCostHandler(svc.FixedCost),
		fixedcost.NewManageFixedCostsHandler(svc.FixedCost),
	}
	for _, h := range handlers {
		h.Register(api)
	}

	return mux
}

// Serve blocks until the server stops. A graceful Shutdown is not an error.
func (r *Rest) Serve() {
	r.server = &http.Server{
		Addr:              ":" + r.Port,
		Handler:           r.Handler(),
		ReadTimeout:       time.Duration(30) * time.Second,
		WriteTimeout:      time.Duration(30) * time.Second,
		IdleTimeout:       time.Duration(10) * time.Second,
		ReadHeaderTimeout: time.Duration(10) * time.Second,
	}

	r.Logger.WithField("port", r.Port).Info("HttpServer.Serve.listening")
	err := r.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		r.Logger.WithError(err).Error("HttpServer.Serve.listen error")
	}
	r.Logger.Info("HttpServer.Serve.shutting down")
}

func (r *Rest) Shutdown(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	return r.server.Shutdown(ctx)
}
