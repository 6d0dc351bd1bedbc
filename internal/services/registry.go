package services

// Package-level service instances wired once at startup, after the database
// connections are established.
var (
	Identity     *MongoIdentityStore
	Resolver     *TeamResolver
	Prospects    *ProspectService
	Contacts     *ContactService
	Tasks        *TaskService
	Stats        *StatsService
	ProfileState *ProfileCache
)

// Init wires the package-level services. Called from main after Mongo and
// Redis have connected.
func Init() {
	Identity = NewMongoIdentityStore()
	Resolver = NewTeamResolver(Identity)
	Prospects = NewProspectService()
	Contacts = NewContactService()
	Tasks = NewTaskService()
	Stats = NewStatsService(Prospects, Tasks, Identity)
	ProfileState = NewProfileCache()
}
