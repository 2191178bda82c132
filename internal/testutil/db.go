// Package testutil provides an in-memory database and seed helpers for package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/rfq-pricing-api/internal/database"
	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a fresh in-memory SQLite database with the schema and audit guards installed.
// A single connection keeps every statement on the same memory database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	require.NoError(t, database.InstallSQLiteGuards(db))
	return db
}

// D parses a decimal literal
func D(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}

// CreateTestTenant creates a USD tenant preferring NON_CHINA
func CreateTestTenant(t *testing.T, db *gorm.DB, name string) *domain.Tenant {
	t.Helper()
	tenant := &domain.Tenant{
		Name:                name,
		Currency:            "USD",
		DefaultOriginPolicy: domain.OriginNonChina,
	}
	require.NoError(t, db.Create(tenant).Error)
	return tenant
}

func CreateTestCustomer(t *testing.T, db *gorm.DB, tenant *domain.Tenant, name string) *domain.Customer {
	t.Helper()
	customer := &domain.Customer{TenantID: tenant.ID, Name: name}
	require.NoError(t, db.Create(customer).Error)
	return customer
}

// RFQLine describes one line for CreateTestRFQ
type RFQLine struct {
	MaterialID      *string
	Category        domain.MaterialCategory
	Quantity        string
	RequestedOrigin *domain.OriginType
	Certifications  []string
}

// CreateTestRFQ creates an RFQ with numbered lines
func CreateTestRFQ(t *testing.T, db *gorm.DB, tenant *domain.Tenant, customer *domain.Customer, lines ...RFQLine) *domain.RFQ {
	t.Helper()
	rfq := &domain.RFQ{
		TenantID:   tenant.ID,
		CustomerID: customer.ID,
		Reference:  "RFQ-" + uuid.NewString()[:8],
		Currency:   tenant.Currency,
		ReceivedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Omit(clause.Associations).Create(rfq).Error)

	for i, line := range lines {
		item := domain.RFQItem{
			TenantID:               tenant.ID,
			RFQID:                  rfq.ID,
			LineNumber:             i + 1,
			MaterialID:             line.MaterialID,
			Category:               line.Category,
			Quantity:               D(line.Quantity),
			Unit:                   "pcs",
			RequestedOrigin:        line.RequestedOrigin,
			RequiredCertifications: datatypes.JSONSlice[string](line.Certifications),
		}
		require.NoError(t, db.Create(&item).Error)
		rfq.Items = append(rfq.Items, item)
	}
	return rfq
}

// CreateTestRule creates an active rule. A nil clientID makes it global.
func CreateTestRule(t *testing.T, db *gorm.DB, tenant *domain.Tenant, clientID *uuid.UUID, origin domain.OriginType, category, markup, logistics, risk string) *domain.ClientPricingRule {
	t.Helper()
	rule := &domain.ClientPricingRule{
		TenantID:     tenant.ID,
		ClientID:     clientID,
		OriginType:   origin,
		Category:     category,
		MarkupPct:    D(markup),
		LogisticsPct: D(logistics),
		RiskPct:      D(risk),
		IsActive:     true,
	}
	require.NoError(t, db.Create(rule).Error)
	return rule
}

// CreateTestAgreement creates a released header valid from yesterday without end
func CreateTestAgreement(t *testing.T, db *gorm.DB, tenant *domain.Tenant, customer *domain.Customer, code string) *domain.AgreementHeader {
	t.Helper()
	header := &domain.AgreementHeader{
		TenantID:      tenant.ID,
		CustomerID:    customer.ID,
		AgreementCode: code,
		Currency:      tenant.Currency,
		ValidFrom:     time.Now().UTC().Add(-24 * time.Hour),
		Status:        domain.AgreementStatusReleased,
	}
	require.NoError(t, db.Create(header).Error)
	return header
}

// CreateTestCondition creates a released condition under header. Set keys and scales on
// condition before calling; tenant, header, validity and status are filled in.
func CreateTestCondition(t *testing.T, db *gorm.DB, header *domain.AgreementHeader, condition *domain.AgreementCondition) *domain.AgreementCondition {
	t.Helper()
	condition.TenantID = header.TenantID
	condition.HeaderID = header.ID
	if condition.ValidFrom.IsZero() {
		condition.ValidFrom = header.ValidFrom
	}
	if condition.Status == "" {
		condition.Status = domain.AgreementStatusReleased
	}
	for i := range condition.Scales {
		condition.Scales[i].TenantID = header.TenantID
	}
	require.NoError(t, db.Omit("Header").Create(condition).Error)
	return condition
}
