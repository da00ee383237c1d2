package services

import (
	"context"
	"log"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/curaious/taskboard/internal/config"
	"github.com/curaious/taskboard/internal/db"
	"github.com/curaious/taskboard/internal/pubsub"
	"github.com/curaious/taskboard/internal/services/access"
	activity2 "github.com/curaious/taskboard/internal/services/activity"
	board2 "github.com/curaious/taskboard/internal/services/board"
	invitation2 "github.com/curaious/taskboard/internal/services/invitation"
	project2 "github.com/curaious/taskboard/internal/services/project"
	task2 "github.com/curaious/taskboard/internal/services/task"
	user2 "github.com/curaious/taskboard/internal/services/user"
)

type Services struct {
	User       *user2.UserService
	Project    *project2.ProjectService
	Board      *board2.BoardService
	Task       *task2.TaskService
	Invitation *invitation2.InvitationService
	Activity   *activity2.ActivityService
	Guard      *access.Guard

	// SSORedirectURL is where the browser lands after a successful single sign-on.
	SSORedirectURL string

	db          *sqlx.DB
	invitations *invitation2.RedisStore
	listener    *pubsub.PubSub
}

func NewServices(conf *config.Config) *Services {
	dbconn := db.NewConn(conf)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     conf.REDIS_ADDR,
		Password: conf.REDIS_PASSWORD,
		DB:       conf.REDIS_DB,
	})
	invitationStore := invitation2.NewRedisStore(redisClient, "")
	if err := invitationStore.Ping(context.Background()); err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}

	svc := &Services{
		User:           user2.NewUserService(user2.NewUserRepo(dbconn)),
		Project:        project2.NewProjectService(project2.NewProjectRepo(dbconn)),
		Board:          board2.NewBoardService(board2.NewBoardRepo(dbconn)),
		Task:           task2.NewTaskService(task2.NewTaskRepo(dbconn)),
		Invitation:     invitation2.NewInvitationService(invitationStore, conf.INVITATION_TTL),
		SSORedirectURL: conf.SSO_REDIRECT_URL,
		db:             dbconn,
		invitations:    invitationStore,
	}

	var activityReader access.ActivityReader
	if conf.CLICKHOUSE_HOST != "" {
		activitySvc, err := newActivityService(conf)
		if err != nil {
			slog.Warn("Failed to connect to ClickHouse for activity", slog.Any("error", err))
		} else {
			svc.Activity = activitySvc
			activityReader = activitySvc

			svc.listener = pubsub.NewPubSub(conf)
			svc.listener.Subscribe(activitySvc.Handler())
			if err := svc.listener.Start(); err != nil {
				slog.Warn("Failed to start pubsub, activity will not be recorded", slog.Any("error", err))
			}
			slog.Info("Connected to ClickHouse for activity")
		}
	}

	svc.Guard = access.NewGuard(access.GuardOptions{
		Authorizer:  access.NewAuthorizer(svc.User, svc.Project, svc.Board, svc.Task, conf.CONCEAL_PRIVATE_PROJECTS),
		Projects:    svc.Project,
		Boards:      svc.Board,
		Tasks:       svc.Task,
		Users:       svc.User,
		Invitations: svc.Invitation,
		Publisher:   pubsub.NewPublisher(dbconn),
		Activity:    activityReader,
	})

	return svc
}

func newActivityService(conf *config.Config) (*activity2.ActivityService, error) {
	chConn, err := activity2.NewClickHouseConn(&activity2.ClickHouseConfig{
		Host:     conf.CLICKHOUSE_HOST,
		Port:     conf.CLICKHOUSE_PORT,
		Database: conf.CLICKHOUSE_DATABASE,
		Username: conf.CLICKHOUSE_USERNAME,
		Password: conf.CLICKHOUSE_PASSWORD,
		UseTLS:   conf.CLICKHOUSE_USE_TLS,
	})
	if err != nil {
		return nil, err
	}

	activitySvc := activity2.NewActivityService(chConn)
	if err := activitySvc.EnsureSchema(context.Background()); err != nil {
		return nil, err
	}
	return activitySvc, nil
}

// Close releases the listener and connection pools.
func (s *Services) Close() {
	if s.listener != nil {
		s.listener.Stop()
	}
	if err := s.invitations.Close(); err != nil {
		slog.Warn("Failed to close redis", slog.Any("error", err))
	}
	if err := s.db.Close(); err != nil {
		slog.Warn("Failed to close database", slog.Any("error", err))
	}
}
