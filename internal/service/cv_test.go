package service

import (
	"context"
	"testing"

	"github.com/DukeRupert/hirewell/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCV_FreePlanLimit(t *testing.T) {
	ts := newTestServices()
	ctx := context.Background()
	ownerID := ts.store.addUser(domain.RoleJobSeeker)
	params := domain.CreateCVParams{Title: "Backend CV", TemplateID: "classic"}

	for i := 0; i < 3; i++ {
		_, err := ts.cvs.Create(ctx, ownerID, params)
		require.NoError(t, err)
	}

	_, err := ts.cvs.Create(ctx, ownerID, params)
	assert.True(t, domain.IsQuotaExceeded(err))
	assert.Len(t, ts.store.cvs, 3)
}

func TestCreateCV_PremiumTemplate(t *testing.T) {
	t.Run("free plan is forbidden", func(t *testing.T) {
		ts := newTestServices()
		ownerID := ts.store.addUser(domain.RoleJobSeeker)

		_, err := ts.cvs.Create(context.Background(), ownerID, domain.CreateCVParams{
			Title:             "Design CV",
			TemplateID:        "aurora",
			IsPremiumTemplate: true,
		})

		assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))
		assert.Empty(t, ts.store.cvs)
	})

	t.Run("paid plan records template usage", func(t *testing.T) {
		ts := newTestServices()
		now := ts.clock.Now()
		ownerID := ts.store.addUser(domain.RoleJobSeeker)
		ts.seed(ownerID, domain.RoleJobSeeker, domain.PlanBasic, domain.SubscriptionStatusActive, now, now.Add(30*day))

		cv, err := ts.cvs.Create(context.Background(), ownerID, domain.CreateCVParams{
			Title:             "Design CV",
			TemplateID:        "aurora",
			IsPremiumTemplate: true,
		})
		require.NoError(t, err)
		assert.True(t, cv.IsPremiumTemplate)

		row, _ := ts.store.get(ownerID, domain.RoleJobSeeker)
		assert.Equal(t, int64(1), row.CvCreationsUsed)
		assert.Equal(t, int64(1), row.PremiumTemplatesUsed)
	})
}

func TestCreateCV_Validation(t *testing.T) {
	ts := newTestServices()
	ownerID := ts.store.addUser(domain.RoleJobSeeker)

	_, err := ts.cvs.Create(context.Background(), ownerID, domain.CreateCVParams{TemplateID: "classic"})
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))

	_, err = ts.cvs.Create(context.Background(), ownerID, domain.CreateCVParams{Title: "CV"})
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}
