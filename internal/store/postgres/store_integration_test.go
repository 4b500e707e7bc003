//go:build integration

package postgres

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/wolfeidau/stockroom/internal/models"
	"github.com/wolfeidau/stockroom/internal/store"
)

var (
	sharedPool     *pgxpool.Pool
	sharedPoolOnce sync.Once
)

func setupPostgresContainer(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()

	sharedPoolOnce.Do(func() {
		req := testcontainers.ContainerRequest{
			Image:        "postgres:18-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "testdb",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		}

		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		require.NoError(t, err)

		host, err := container.Host(ctx)
		require.NoError(t, err)

		port, err := container.MappedPort(ctx, "5432")
		require.NoError(t, err)

		connString := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

		sharedPool, err = NewPool(ctx, &PoolConfig{
			ConnString:  connString,
			AutoMigrate: true,
		})
		require.NoError(t, err)
	})

	require.NotNil(t, sharedPool)
	return sharedPool
}

// uniq keeps names distinct across tests sharing one database.
func uniq(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

func registerCompany(t *testing.T, ctx context.Context, stores store.Stores) (*models.Company, *models.User) {
	t.Helper()

	login := uniq("admin")
	company := &models.Company{Name: uniq("Acme")}
	admin := &models.User{
		Name:         "Alice",
		Email:        login + "@example.com",
		Login:        login,
		PasswordHash: "hash",
	}
	require.NoError(t, stores.Companies.CreateWithAdmin(ctx, company, admin))

	return company, admin
}

func TestIntegration_Migrations(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgresContainer(t, ctx)

	// Re-running is a no-op
	require.NoError(t, RunMigrations(ctx, pool))

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	require.Equal(t, 1, count)
}

func TestIntegration_CompanyStore(t *testing.T) {
	ctx := context.Background()
	stores := NewStores(setupPostgresContainer(t, ctx))

	t.Run("create with admin", func(t *testing.T) {
		company, admin := registerCompany(t, ctx, stores)
		require.NotZero(t, company.CompanyID)
		require.NotZero(t, admin.UserID)
		require.True(t, admin.IsAdmin)
		require.False(t, admin.CreatedAt.IsZero())

		got, err := stores.Companies.GetByName(ctx, company.Name)
		require.NoError(t, err)
		require.Equal(t, company.CompanyID, got.CompanyID)
	})

	t.Run("duplicate company name rolls back", func(t *testing.T) {
		company, _ := registerCompany(t, ctx, stores)

		login := uniq("bob")
		err := stores.Companies.CreateWithAdmin(ctx, &models.Company{Name: company.Name}, &models.User{
			Name: "Bob", Email: login + "@example.com", Login: login, PasswordHash: "hash",
		})
		require.ErrorIs(t, err, store.ErrCompanyAlreadyExists)

		_, err = stores.Users.GetByLogin(ctx, login)
		require.ErrorIs(t, err, store.ErrUserNotFound)
	})

	t.Run("duplicate login rolls back company", func(t *testing.T) {
		_, admin := registerCompany(t, ctx, stores)

		name := uniq("Globex")
		err := stores.Companies.CreateWithAdmin(ctx, &models.Company{Name: name}, &models.User{
			Name: "Hank", Email: uniq("hank") + "@example.com", Login: admin.Login, PasswordHash: "hash",
		})
		require.ErrorIs(t, err, store.ErrLoginTaken)

		_, err = stores.Companies.GetByName(ctx, name)
		require.ErrorIs(t, err, store.ErrCompanyNotFound)
	})

	t.Run("delete cascades", func(t *testing.T) {
		company, admin := registerCompany(t, ctx, stores)
		require.NoError(t, stores.Products.Create(ctx, &models.Product{CompanyID: company.CompanyID, Name: "Widget"}))

		require.NoError(t, stores.Companies.Delete(ctx, company.CompanyID))

		_, err := stores.Users.Get(ctx, admin.UserID)
		require.ErrorIs(t, err, store.ErrUserNotFound)

		products, err := stores.Products.ListByCompany(ctx, company.CompanyID)
		require.NoError(t, err)
		require.Empty(t, products)
	})
}

func TestIntegration_UserStore(t *testing.T) {
	ctx := context.Background()
	stores := NewStores(setupPostgresContainer(t, ctx))

	company, admin := registerCompany(t, ctx, stores)
	other, _ := registerCompany(t, ctx, stores)

	bobLogin := uniq("bob")
	bob := &models.User{CompanyID: company.CompanyID, Name: "Bob", Email: bobLogin + "@example.com", Login: bobLogin, PasswordHash: "h"}
	require.NoError(t, stores.Users.Create(ctx, bob))

	t.Run("list ordered by id", func(t *testing.T) {
		users, err := stores.Users.ListByCompany(ctx, company.CompanyID)
		require.NoError(t, err)
		require.Len(t, users, 2)
		require.Equal(t, admin.UserID, users[0].UserID)
		require.Equal(t, bob.UserID, users[1].UserID)
	})

	t.Run("primary admin", func(t *testing.T) {
		primary, err := stores.Users.PrimaryAdmin(ctx, company.CompanyID)
		require.NoError(t, err)
		require.Equal(t, admin.UserID, primary.UserID)
	})

	t.Run("scoped lookups", func(t *testing.T) {
		_, err := stores.Users.GetInCompany(ctx, other.CompanyID, bob.UserID)
		require.ErrorIs(t, err, store.ErrUserNotFound)

		got, err := stores.Users.GetInCompany(ctx, company.CompanyID, bob.UserID)
		require.NoError(t, err)
		require.Equal(t, bobLogin, got.Login)
	})

	t.Run("duplicate email", func(t *testing.T) {
		err := stores.Users.Create(ctx, &models.User{CompanyID: other.CompanyID, Name: "X", Email: bob.Email, Login: uniq("x"), PasswordHash: "h"})
		require.ErrorIs(t, err, store.ErrEmailTaken)
	})

	t.Run("update conflicts on login", func(t *testing.T) {
		upd := *bob
		upd.Login = admin.Login
		require.ErrorIs(t, stores.Users.Update(ctx, &upd), store.ErrLoginTaken)
	})

	t.Run("update", func(t *testing.T) {
		upd := *bob
		upd.Name = "Robert"
		require.NoError(t, stores.Users.Update(ctx, &upd))

		got, err := stores.Users.Get(ctx, bob.UserID)
		require.NoError(t, err)
		require.Equal(t, "Robert", got.Name)
	})

	t.Run("delete scoped", func(t *testing.T) {
		require.ErrorIs(t, stores.Users.Delete(ctx, other.CompanyID, bob.UserID), store.ErrUserNotFound)
		require.NoError(t, stores.Users.Delete(ctx, company.CompanyID, bob.UserID))
		require.ErrorIs(t, stores.Users.Delete(ctx, company.CompanyID, bob.UserID), store.ErrUserNotFound)
	})
}

func TestIntegration_ProductStore(t *testing.T) {
	ctx := context.Background()
	stores := NewStores(setupPostgresContainer(t, ctx))

	company, _ := registerCompany(t, ctx, stores)
	other, _ := registerCompany(t, ctx, stores)

	desc := "Round"
	widget := &models.Product{
		CompanyID:   company.CompanyID,
		Name:        "Widget",
		Description: &desc,
		Quantity:    3,
		Price:       decimal.NewNullDecimal(decimal.RequireFromString("12.50")),
	}
	require.NoError(t, stores.Products.Create(ctx, widget))
	require.NoError(t, stores.Products.Create(ctx, &models.Product{CompanyID: company.CompanyID, Name: "Anvil"}))

	t.Run("get round trips price and description", func(t *testing.T) {
		got, err := stores.Products.Get(ctx, widget.ProductID)
		require.NoError(t, err)
		require.Equal(t, "Round", *got.Description)
		require.True(t, got.Price.Valid)
		require.True(t, got.Price.Decimal.Equal(decimal.RequireFromString("12.5")))
	})

	t.Run("list ordered by name", func(t *testing.T) {
		products, err := stores.Products.ListByCompany(ctx, company.CompanyID)
		require.NoError(t, err)
		require.Len(t, products, 2)
		require.Equal(t, "Anvil", products[0].Name)
		require.Nil(t, products[0].Description)
		require.False(t, products[0].Price.Valid)
	})

	t.Run("update refreshes timestamp", func(t *testing.T) {
		time.Sleep(10 * time.Millisecond)
		upd := *widget
		upd.Quantity = 9
		upd.Price = decimal.NullDecimal{}
		require.NoError(t, stores.Products.Update(ctx, &upd))
		require.True(t, upd.UpdatedAt.After(widget.UpdatedAt))

		got, err := stores.Products.Get(ctx, widget.ProductID)
		require.NoError(t, err)
		require.Equal(t, int64(9), got.Quantity)
		require.False(t, got.Price.Valid)
	})

	t.Run("cross tenant update and delete", func(t *testing.T) {
		upd := *widget
		upd.CompanyID = other.CompanyID
		require.ErrorIs(t, stores.Products.Update(ctx, &upd), store.ErrProductNotFound)
		require.ErrorIs(t, stores.Products.Delete(ctx, other.CompanyID, widget.ProductID), store.ErrProductNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, stores.Products.Delete(ctx, company.CompanyID, widget.ProductID))
		_, err := stores.Products.Get(ctx, widget.ProductID)
		require.ErrorIs(t, err, store.ErrProductNotFound)
	})
}

func TestIntegration_SessionStore(t *testing.T) {
	ctx := context.Background()
	stores := NewStores(setupPostgresContainer(t, ctx))

	now := time.Now()
	sess := &models.Session{
		SessionID:  uuid.Must(uuid.NewV7()),
		CreatedAt:  now,
		ExpiresAt:  now.Add(time.Hour),
		LastUsedAt: now,
		UserAgent:  "test",
		IPAddress:  "127.0.0.1",
	}
	require.NoError(t, stores.Sessions.Create(ctx, sess))

	t.Run("anonymous session", func(t *testing.T) {
		got, err := stores.Sessions.Get(ctx, sess.SessionID)
		require.NoError(t, err)
		require.Nil(t, got.UserID)
		require.Empty(t, got.Flashes)
		require.Equal(t, "127.0.0.1", got.IPAddress)
	})

	t.Run("save user and flashes", func(t *testing.T) {
		sess.SetUser(42)
		sess.AddFlash(models.FlashInfo, "hi")
		require.NoError(t, stores.Sessions.Save(ctx, sess))

		got, err := stores.Sessions.Get(ctx, sess.SessionID)
		require.NoError(t, err)
		require.Equal(t, int64(42), *got.UserID)
		require.Equal(t, []models.Flash{{Level: models.FlashInfo, Message: "hi"}}, got.Flashes)
	})

	t.Run("expired", func(t *testing.T) {
		old := &models.Session{
			SessionID:  uuid.Must(uuid.NewV7()),
			CreatedAt:  now.Add(-2 * time.Hour),
			ExpiresAt:  now.Add(-time.Hour),
			LastUsedAt: now.Add(-2 * time.Hour),
		}
		require.NoError(t, stores.Sessions.Create(ctx, old))

		_, err := stores.Sessions.Get(ctx, old.SessionID)
		require.ErrorIs(t, err, store.ErrSessionExpired)

		n, err := stores.Sessions.DeleteExpired(ctx)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 1)

		_, err = stores.Sessions.Get(ctx, old.SessionID)
		require.ErrorIs(t, err, store.ErrSessionNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, stores.Sessions.Delete(ctx, sess.SessionID))
		require.ErrorIs(t, stores.Sessions.Delete(ctx, sess.SessionID), store.ErrSessionNotFound)
	})
}
