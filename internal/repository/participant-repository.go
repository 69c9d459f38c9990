package repository

import (
	"context"
	"study_admin_service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

const (
	enrollmentEnrolled = "enrolled"
	enrollmentInvited  = "invited"
)

// ParticipantRepository reads the participant registry collections maintained
// by the enrollment side of the platform. All queries here feed the per-app
// aggregate rollups and the participant roster.
type ParticipantRepository struct {
	users       *mongo.Collection
	enrollments *mongo.Collection
}

func NewParticipantRepository(db *mongo.Database) *ParticipantRepository {
	return &ParticipantRepository{
		users:       db.Collection("ParticipantUser"),
		enrollments: db.Collection("ParticipantStudy"),
	}
}

// FindAppUsersCount groups registered participant users by app. A nil appIDs
// slice means every app.
func (r *ParticipantRepository) FindAppUsersCount(ctx context.Context, appIDs []string) ([]*models.AppCount, error) {
	match := bson.M{}
	if len(appIDs) > 0 {
		match["appId"] = bson.M{"$in": appIDs}
	}
	return r.countByApp(ctx, r.users, match)
}

func (r *ParticipantRepository) FindEnrolledCountByApp(ctx context.Context, appIDs []string) ([]*models.AppCount, error) {
	match := bson.M{"status": enrollmentEnrolled}
	if len(appIDs) > 0 {
		match["appId"] = bson.M{"$in": appIDs}
	}
	return r.countByApp(ctx, r.enrollments, match)
}

func (r *ParticipantRepository) FindInvitedCountByApp(ctx context.Context, appIDs []string) ([]*models.AppCount, error) {
	match := bson.M{"status": bson.M{"$in": []string{enrollmentInvited, enrollmentEnrolled}}}
	if len(appIDs) > 0 {
		match["appId"] = bson.M{"$in": appIDs}
	}
	return r.countByApp(ctx, r.enrollments, match)
}

func (r *ParticipantRepository) countByApp(ctx context.Context, collection *mongo.Collection, match bson.M) ([]*models.AppCount, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   "$appId",
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := collection.Aggregate(ctx, pipeline)
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

// FindParticipantsByApp returns one flat (user, study) tuple per enrollment
// row, plus a tuple with an empty study id for users without enrollments.
// Tuples come back ordered by registration so the roster fold preserves
// first-seen user order.
func (r *ParticipantRepository) FindParticipantsByApp(ctx context.Context, appID string, excludeStudyStatuses []string) ([]*models.AppParticipantInfo, error) {
	enrollmentPipeline := []bson.M{
		{"$match": bson.M{"$expr": bson.M{"$eq": []string{"$userDetailsId", "$$userId"}}}},
	}
	if len(excludeStudyStatuses) > 0 {
		enrollmentPipeline = append(enrollmentPipeline,
			bson.M{"$match": bson.M{"status": bson.M{"$nin": excludeStudyStatuses}}})
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"appId": appID}}},
		bson.D{{Key: "$sort", Value: bson.M{"registrationDate": 1, "_id": 1}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":     "ParticipantStudy",
			"let":      bson.M{"userId": bson.M{"$toString": "$_id"}},
			"pipeline": enrollmentPipeline,
			"as":       "enrollments",
		}}},
		bson.D{{Key: "$unwind", Value: bson.M{
			"path":                       "$enrollments",
			"preserveNullAndEmptyArrays": true,
		}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         "Study",
			"localField":   "enrollments.studyId",
			"foreignField": "_id",
			"as":           "study",
		}}},
		bson.D{{Key: "$unwind", Value: bson.M{
			"path":                       "$study",
			"preserveNullAndEmptyArrays": true,
		}}},
		bson.D{{Key: "$project", Value: bson.M{
			"userDetailsId":    bson.M{"$toString": "$_id"},
			"email":            "$email",
			"registrationDate": "$registrationDate",
			"studyId":          bson.M{"$ifNull": []any{"$enrollments.studyId", ""}},
			"customStudyId":    bson.M{"$ifNull": []any{"$study.customId", ""}},
			"studyName":        bson.M{"$ifNull": []any{"$study.name", ""}},
			"studyStatus":      bson.M{"$ifNull": []any{"$enrollments.status", ""}},
			"enrolledDate":     bson.M{"$ifNull": []any{"$enrollments.enrolledDate", 0}},
		}}},
	}

	cursor, err := r.users.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tuples []*models.AppParticipantInfo
	if err = cursor.All(ctx, &tuples); err != nil {
		return nil, err
	}
	return tuples, nil
}

// FindSitesByAppAndUsers returns (user, study, site) tuples for attaching
// site lists to roster entries, keyed by userId+studyId.
func (r *ParticipantRepository) FindSitesByAppAndUsers(ctx context.Context, appID string, userIDs []string, excludeStudyStatuses []string) ([]*models.AppSiteInfo, error) {
	match := bson.M{
		"appId":         appID,
		"userDetailsId": bson.M{"$in": userIDs},
		"siteId":        bson.M{"$ne": ""},
	}
	if len(excludeStudyStatuses) > 0 {
		match["status"] = bson.M{"$nin": excludeStudyStatuses}
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         "Site",
			"localField":   "siteId",
			"foreignField": "_id",
			"as":           "site",
		}}},
		bson.D{{Key: "$unwind", Value: bson.M{
			"path":                       "$site",
			"preserveNullAndEmptyArrays": true,
		}}},
		bson.D{{Key: "$project", Value: bson.M{
			"userDetailsId": "$userDetailsId",
			"studyId":       "$studyId",
			"siteId":        "$siteId",
			"siteName":      bson.M{"$ifNull": []any{"$site.name", ""}},
		}}},
	}

	cursor, err := r.enrollments.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tuples []*models.AppSiteInfo
	if err = cursor.All(ctx, &tuples); err != nil {
		return nil, err
	}
	return tuples, nil
}
