package repository

import "study_admin_service/internal/database/mongo"

type Repositories struct {
	AdminUserRepository   *AdminUserRepository
	CatalogRepository     *CatalogRepository
	PermissionRepository  *PermissionRepository
	ParticipantRepository *ParticipantRepository
	RedisRepository       *RedisRepo
	TxnRunner             *MongoTxnRunner
}

var Repositories_instance = &Repositories{
	AdminUserRepository:   NewAdminUserRepository(mongo.Mongo_Database),
	CatalogRepository:     NewCatalogRepository(mongo.Mongo_Database),
	PermissionRepository:  NewPermissionRepository(mongo.Mongo_Database),
	ParticipantRepository: NewParticipantRepository(mongo.Mongo_Database),
	RedisRepository:       NewRedisRepo(),
	TxnRunner:             NewMongoTxnRunner(mongo.Mongo_Client),
}
