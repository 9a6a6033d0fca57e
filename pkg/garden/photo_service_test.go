package garden

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mallkisapan.io/garden/models"
)

func TestAnalyzeCreatesOneAlertPerIssue(t *testing.T) {
	tests := []struct {
		name     string
		score    int
		issues   []string
		severity models.AlertSeverity
	}{
		{"no issues", 95, nil, ""},
		{"healthy with a note", 85, []string{"minor leaf curl"}, models.SeverityLow},
		{"struggling", 65, []string{"yellowing leaves", "slow growth"}, models.SeverityMedium},
		{"failing", 30, []string{"blight", "aphids", "wilting"}, models.SeverityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, db, spy := newTestServices(t)
			ctx := context.Background()
			crop := createCrop(t, svc, "Tomato")
			photo, err := svc.Photos.Create(ctx, PhotoInput{URL: "/uploads/a.jpg", CropID: &crop.ID})
			require.NoError(t, err)

			res, err := svc.Photos.Analyze(ctx, photo.ID, AnalysisInput{
				HealthScore:     ptr(tt.score),
				GrowthStage:     "flowering",
				Issues:          tt.issues,
				Recommendations: []string{"Water early", "Check for pests"},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.score, res.Analysis.HealthScore)
			require.Len(t, res.Alerts, len(tt.issues))

			var stored []models.Alert
			require.NoError(t, db.Find(&stored).Error)
			require.Len(t, stored, len(tt.issues))
			for _, a := range stored {
				assert.Equal(t, models.AlertGrowth, a.Type)
				assert.Equal(t, tt.severity, a.Severity)
				assert.Equal(t, "Issue detected on Tomato", a.Title)
				require.NotNil(t, a.CropID)
				assert.Equal(t, crop.ID, *a.CropID)
				require.NotNil(t, a.AIRecommendation)
				assert.Equal(t, "Water early. Check for pests", *a.AIRecommendation)
			}
			assert.Len(t, spy.alerts, len(tt.issues))
		})
	}
}

func TestAnalyzeUpserts(t *testing.T) {
	svc, db, _ := newTestServices(t)
	ctx := context.Background()
	crop := createCrop(t, svc, "Basil")
	photo, err := svc.Photos.Create(ctx, PhotoInput{URL: "https://example.com/b.jpg", CropID: &crop.ID})
	require.NoError(t, err)

	first, err := svc.Photos.Analyze(ctx, photo.ID, AnalysisInput{HealthScore: ptr(70), GrowthStage: "seedling"})
	require.NoError(t, err)
	second, err := svc.Photos.Analyze(ctx, photo.ID, AnalysisInput{HealthScore: ptr(88), GrowthStage: "vegetative"})
	require.NoError(t, err)
	assert.Equal(t, first.Analysis.ID, second.Analysis.ID)

	var n int64
	require.NoError(t, db.Model(&models.PhotoAnalysis{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	view, err := svc.Photos.Get(ctx, photo.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Analysis)
	assert.Equal(t, 88, view.Analysis.HealthScore)
	assert.Equal(t, "Basil", view.CropName)
}

func TestAnalyzeRejects(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()

	_, err := svc.Photos.Analyze(ctx, uuid.New(), AnalysisInput{HealthScore: ptr(50), GrowthStage: "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Photos.Analyze(ctx, uuid.New(), AnalysisInput{HealthScore: ptr(150), GrowthStage: "x"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "healthScore", verr.Fields[0].Field)
}

func TestPhotoCreateAndFilter(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()
	tomato := createCrop(t, svc, "Tomato")
	basil := createCrop(t, svc, "Basil")

	_, err := svc.Photos.Create(ctx, PhotoInput{URL: "https://example.com/1.jpg", CropID: &tomato.ID, CapturedAt: jsonTime(testNow.AddDate(0, 0, -1))})
	require.NoError(t, err)
	_, err = svc.Photos.Create(ctx, PhotoInput{URL: "https://example.com/2.jpg", CropID: &tomato.ID})
	require.NoError(t, err)
	_, err = svc.Photos.Create(ctx, PhotoInput{URL: "https://example.com/3.jpg", CropID: &basil.ID})
	require.NoError(t, err)

	photos, err := svc.Photos.List(ctx, &tomato.ID)
	require.NoError(t, err)
	require.Len(t, photos, 2)
	assert.Equal(t, "https://example.com/2.jpg", photos[0].URL, "newest first")
	assert.Equal(t, "Tomato", photos[0].CropName)

	missing := uuid.New()
	_, err = svc.Photos.Create(ctx, PhotoInput{URL: "https://example.com/4.jpg", CropID: &missing})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Photos.Create(ctx, PhotoInput{URL: "not a url", CropID: &tomato.ID})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestPhotoUpdateAndDelete(t *testing.T) {
	svc, db, _ := newTestServices(t)
	ctx := context.Background()
	tomato := createCrop(t, svc, "Tomato")
	basil := createCrop(t, svc, "Basil")
	photo, err := svc.Photos.Create(ctx, PhotoInput{URL: "https://example.com/1.jpg", CropID: &tomato.ID})
	require.NoError(t, err)

	moved, err := svc.Photos.Update(ctx, photo.ID, PhotoUpdate{CropID: &basil.ID, ThumbnailURL: ptr("https://example.com/1_t.jpg")})
	require.NoError(t, err)
	assert.Equal(t, basil.ID, moved.CropID)
	assert.Equal(t, "Basil", moved.CropName)
	assert.Equal(t, "https://example.com/1_t.jpg", moved.ThumbnailURL)

	_, err = svc.Photos.Analyze(ctx, photo.ID, AnalysisInput{HealthScore: ptr(90), GrowthStage: "fruiting"})
	require.NoError(t, err)
	require.NoError(t, svc.Photos.Delete(ctx, photo.ID))

	var n int64
	require.NoError(t, db.Model(&models.PhotoAnalysis{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.ErrorIs(t, svc.Photos.Delete(ctx, photo.ID), ErrNotFound)
}
