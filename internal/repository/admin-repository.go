package repository

import (
	"context"
	"errors"
	"fmt"
	"study_admin_service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type AdminUserRepository struct {
	collection *mongo.Collection
}

func NewAdminUserRepository(db *mongo.Database) *AdminUserRepository {
	return &AdminUserRepository{
		collection: db.Collection("AdminUser"),
	}
}

func (r *AdminUserRepository) FindByID(ctx context.Context, id string) (*models.AdminUser, error) {
	var admin models.AdminUser
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&admin)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &admin, nil
}

func (r *AdminUserRepository) FindByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	var admin models.AdminUser
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&admin)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &admin, nil
}

func (r *AdminUserRepository) FindBySecurityCode(ctx context.Context, code string) (*models.AdminUser, error) {
	var admin models.AdminUser
	err := r.collection.FindOne(ctx, bson.M{"securityCode": code}).Decode(&admin)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &admin, nil
}

func (r *AdminUserRepository) FindAll(ctx context.Context) ([]*models.AdminUser, error) {
	opts := options.Find()
	opts.SetSort(bson.M{"createdAt": -1})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var admins []*models.AdminUser
	if err = cursor.All(ctx, &admins); err != nil {
		return nil, err
	}

	return admins, nil
}

func (r *AdminUserRepository) FindByStatus(ctx context.Context, status int) ([]*models.AdminUser, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"status": status})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var admins []*models.AdminUser
	if err = cursor.All(ctx, &admins); err != nil {
		return nil, err
	}

	return admins, nil
}

func (r *AdminUserRepository) Save(ctx context.Context, admin *models.AdminUser) (*models.AdminUser, error) {
	_, err := r.collection.InsertOne(ctx, admin)
	if err != nil {
		return nil, fmt.Errorf("failed to insert admin user: %w", err)
	}
	return admin, nil
}

func (r *AdminUserRepository) Update(ctx context.Context, admin *models.AdminUser) error {
	filter := bson.M{"_id": admin.ID}
	_, err := r.collection.ReplaceOne(ctx, filter, admin)
	if err != nil {
		return fmt.Errorf("failed to update admin user: %w", err)
	}
	return nil
}
