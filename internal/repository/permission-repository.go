package repository

import (
	"context"
	"errors"
	"fmt"
	"study_admin_service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// PermissionRepository owns the three grant collections. All writes to them
// go through this type; the assignment engine computes full row sets and this
// repository persists or clears them per admin.
type PermissionRepository struct {
	appPermissions   *mongo.Collection
	studyPermissions *mongo.Collection
	sitePermissions  *mongo.Collection
}

func NewPermissionRepository(db *mongo.Database) *PermissionRepository {
	return &PermissionRepository{
		appPermissions:   db.Collection("AppPermission"),
		studyPermissions: db.Collection("StudyPermission"),
		sitePermissions:  db.Collection("SitePermission"),
	}
}

func (r *PermissionRepository) SaveAppPermissions(ctx context.Context, permissions []*models.AppPermission) error {
	if len(permissions) == 0 {
		return nil
	}
	docs := make([]any, len(permissions))
	for i, p := range permissions {
		docs[i] = p
	}
	if _, err := r.appPermissions.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert app permissions: %w", err)
	}
	return nil
}

func (r *PermissionRepository) SaveStudyPermissions(ctx context.Context, permissions []*models.StudyPermission) error {
	if len(permissions) == 0 {
		return nil
	}
	docs := make([]any, len(permissions))
	for i, p := range permissions {
		docs[i] = p
	}
	if _, err := r.studyPermissions.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert study permissions: %w", err)
	}
	return nil
}

func (r *PermissionRepository) SaveSitePermissions(ctx context.Context, permissions []*models.SitePermission) error {
	if len(permissions) == 0 {
		return nil
	}
	docs := make([]any, len(permissions))
	for i, p := range permissions {
		docs[i] = p
	}
	if _, err := r.sitePermissions.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert site permissions: %w", err)
	}
	return nil
}

func (r *PermissionRepository) FindAppPermissionsByAdmin(ctx context.Context, adminUserID string) ([]*models.AppPermission, error) {
	cursor, err := r.appPermissions.Find(ctx, bson.M{"adminUserId": adminUserID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var permissions []*models.AppPermission
	if err = cursor.All(ctx, &permissions); err != nil {
		return nil, err
	}
	return permissions, nil
}

func (r *PermissionRepository) FindAppPermission(ctx context.Context, adminUserID, appID string) (*models.AppPermission, error) {
	var permission models.AppPermission
	err := r.appPermissions.FindOne(ctx, bson.M{"adminUserId": adminUserID, "appId": appID}).Decode(&permission)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &permission, nil
}

func (r *PermissionRepository) FindStudyPermission(ctx context.Context, adminUserID, appID, studyID string) (*models.StudyPermission, error) {
	filter := bson.M{"adminUserId": adminUserID, "appId": appID, "studyId": studyID}

	var permission models.StudyPermission
	err := r.studyPermissions.FindOne(ctx, filter).Decode(&permission)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &permission, nil
}

func (r *PermissionRepository) FindSitePermission(ctx context.Context, adminUserID, appID, studyID, siteID string) (*models.SitePermission, error) {
	filter := bson.M{"adminUserId": adminUserID, "appId": appID, "studyId": studyID, "siteId": siteID}

	var permission models.SitePermission
	err := r.sitePermissions.FindOne(ctx, filter).Decode(&permission)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &permission, nil
}

// DeleteByAdmin clears every grant row for one admin across all three
// collections. Update flows call this before recreating the full set.
func (r *PermissionRepository) DeleteByAdmin(ctx context.Context, adminUserID string) error {
	filter := bson.M{"adminUserId": adminUserID}

	if _, err := r.sitePermissions.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("failed to delete site permissions: %w", err)
	}
	if _, err := r.studyPermissions.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("failed to delete study permissions: %w", err)
	}
	if _, err := r.appPermissions.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("failed to delete app permissions: %w", err)
	}
	return nil
}
