package repository

import (
	"context"
	"errors"
	"study_admin_service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// CatalogRepository is the read-only view of apps, studies and sites. The
// catalog is owned by the study-builder side of the platform; this service
// never writes to it.
type CatalogRepository struct {
	apps    *mongo.Collection
	studies *mongo.Collection
	sites   *mongo.Collection
}

func NewCatalogRepository(db *mongo.Database) *CatalogRepository {
	return &CatalogRepository{
		apps:    db.Collection("App"),
		studies: db.Collection("Study"),
		sites:   db.Collection("Site"),
	}
}

func (r *CatalogRepository) ListApps(ctx context.Context) ([]*models.App, error) {
	cursor, err := r.apps.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var apps []*models.App
	if err = cursor.All(ctx, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *CatalogRepository) FindAppByID(ctx context.Context, id string) (*models.App, error) {
	var app models.App
	err := r.apps.FindOne(ctx, bson.M{"_id": id}).Decode(&app)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &app, nil
}

func (r *CatalogRepository) ListStudiesByApp(ctx context.Context, appID string) ([]*models.Study, error) {
	cursor, err := r.studies.Find(ctx, bson.M{"appId": appID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var studies []*models.Study
	if err = cursor.All(ctx, &studies); err != nil {
		return nil, err
	}
	return studies, nil
}

func (r *CatalogRepository) ListAllStudies(ctx context.Context) ([]*models.Study, error) {
	cursor, err := r.studies.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var studies []*models.Study
	if err = cursor.All(ctx, &studies); err != nil {
		return nil, err
	}
	return studies, nil
}

func (r *CatalogRepository) FindStudyByID(ctx context.Context, id string) (*models.Study, error) {
	var study models.Study
	err := r.studies.FindOne(ctx, bson.M{"_id": id}).Decode(&study)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &study, nil
}

func (r *CatalogRepository) FindSiteByID(ctx context.Context, id string) (*models.Site, error) {
	var site models.Site
	err := r.sites.FindOne(ctx, bson.M{"_id": id}).Decode(&site)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &site, nil
}

func (r *CatalogRepository) ListSitesByStudy(ctx context.Context, studyID string) ([]*models.Site, error) {
	return r.listSites(ctx, bson.M{"studyId": studyID})
}

func (r *CatalogRepository) ListSitesByStudyIDs(ctx context.Context, studyIDs []string) ([]*models.Site, error) {
	if len(studyIDs) == 0 {
		return nil, nil
	}
	return r.listSites(ctx, bson.M{"studyId": bson.M{"$in": studyIDs}})
}

func (r *CatalogRepository) ListAllSites(ctx context.Context) ([]*models.Site, error) {
	return r.listSites(ctx, bson.M{})
}

func (r *CatalogRepository) listSites(ctx context.Context, filter bson.M) ([]*models.Site, error) {
	cursor, err := r.sites.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sites []*models.Site
	if err = cursor.All(ctx, &sites); err != nil {
		return nil, err
	}
	return sites, nil
}

// FindAppStudiesCount groups the study catalog by app id.
func (r *CatalogRepository) FindAppStudiesCount(ctx context.Context) ([]*models.AppCount, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   "$appId",
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.studies.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var counts []*models.AppCount
	if err = cursor.All(ctx, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}
