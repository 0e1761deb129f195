package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-clinic-negotiation/internal/converter"
	"go-clinic-negotiation/internal/delivery/dto"
	"go-clinic-negotiation/internal/domain/entity"
	"go-clinic-negotiation/internal/domain/repository"
	"go-clinic-negotiation/pkg/jwt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrInvalidDateFormat  = errors.New("invalid date format, expected YYYY-MM-DD")
)

// AuthUsecase covers registration, login and the redis-backed token lifecycle.
// Access and refresh tokens are stored in redis per token ID so a token stays
// revocable for its whole JWT lifetime.
type AuthUsecase interface {
	RegisterPatient(ctx context.Context, req *dto.RegisterPatientRequest) (*dto.UserResponse, error)
	RegisterClinicAdmin(ctx context.Context, req *dto.RegisterClinicAdminRequest) (*dto.UserResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, userID uuid.UUID, accessTokenID, refreshToken string) error
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	GetCurrentUser(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error)
}

type authUsecase struct {
	db          *gorm.DB
	log         *logrus.Logger
	userRepo    repository.UserRepository
	clinicRepo  repository.ClinicRepository
	jwtService  *jwt.JWTService
	redisClient *redis.Client
}

func NewAuthUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	userRepo repository.UserRepository,
	clinicRepo repository.ClinicRepository,
	jwtService *jwt.JWTService,
	redisClient *redis.Client,
) AuthUsecase {
	return &authUsecase{
		db:          db,
		log:         log,
		userRepo:    userRepo,
		clinicRepo:  clinicRepo,
		jwtService:  jwtService,
		redisClient: redisClient,
	}
}

func (u *authUsecase) RegisterPatient(ctx context.Context, req *dto.RegisterPatientRequest) (*dto.UserResponse, error) {
	dateOfBirth, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Errorf("Failed to hash password: %+v", err)
		return nil, err
	}

	active := true
	user := &entity.User{
		RoleID:   entity.RoleIDPatient,
		Email:    req.Email,
		Password: string(hashedPassword),
		FullName: req.FullName,
		IsActive: &active,
		PatientProfile: &entity.PatientProfile{
			NIK:         req.NIK,
			PhoneNumber: req.PhoneNumber,
			DateOfBirth: dateOfBirth,
			Gender:      req.Gender,
			Address:     req.Address,
		},
	}

	err = u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return u.userRepo.Create(tx, user)
	})
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrEmailAlreadyExists
		}
		u.log.Errorf("Failed to register patient: %+v", err)
		return nil, err
	}

	u.log.Infof("Patient registered: %s", user.Email)
	return converter.UserToResponse(withRoleName(user)), nil
}

func (u *authUsecase) RegisterClinicAdmin(ctx context.Context, req *dto.RegisterClinicAdminRequest) (*dto.UserResponse, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Errorf("Failed to hash password: %+v", err)
		return nil, err
	}

	active := true
	user := &entity.User{
		RoleID:   entity.RoleIDClinicAdmin,
		Email:    req.Email,
		Password: string(hashedPassword),
		FullName: req.FullName,
		IsActive: &active,
	}

	var clinic *entity.Clinic
	err = u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := u.userRepo.Create(tx, user); err != nil {
			return err
		}
		clinic = &entity.Clinic{
			AdminID:   user.ID,
			Name:      req.ClinicName,
			Status:    entity.ClinicPending,
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
		}
		return u.clinicRepo.Create(tx, clinic)
	})
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrEmailAlreadyExists
		}
		u.log.Errorf("Failed to register clinic admin: %+v", err)
		return nil, err
	}

	u.log.Infof("Clinic admin registered: %s, clinic=%s (pending)", user.Email, clinic.Name)
	resp := converter.UserToResponse(withRoleName(user))
	resp.Clinic = converter.ClinicToResponse(clinic)
	return resp, nil
}

func (u *authUsecase) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := u.userRepo.FindByEmail(u.db.WithContext(ctx), req.Email)
	if err != nil {
		u.log.Errorf("Failed to find user by email: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if user.IsActive != nil && !*user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	tokens, err := u.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	u.log.Infof("User logged in: %s", user.Email)
	return tokens, nil
}

func (u *authUsecase) Logout(ctx context.Context, userID uuid.UUID, accessTokenID, refreshToken string) error {
	accessKey := fmt.Sprintf("access_token:%s:%s", userID.String(), accessTokenID)
	if err := u.redisClient.Del(ctx, accessKey).Err(); err != nil {
		u.log.Warnf("Failed to revoke access token: %+v", err)
	}

	// Revoke the paired refresh token when the client sent it along.
	if refreshToken != "" {
		claims, err := u.jwtService.ValidateToken(refreshToken)
		if err == nil && claims.TokenType == jwt.RefreshToken && claims.UserID == userID {
			refreshKey := fmt.Sprintf("refresh_token:%s:%s", claims.UserID.String(), claims.TokenID)
			if err := u.redisClient.Del(ctx, refreshKey).Err(); err != nil {
				u.log.Warnf("Failed to revoke refresh token: %+v", err)
			}
		}
	}

	return nil
}

func (u *authUsecase) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := u.jwtService.ValidateToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != jwt.RefreshToken {
		return nil, ErrInvalidToken
	}

	refreshKey := fmt.Sprintf("refresh_token:%s:%s", claims.UserID.String(), claims.TokenID)
	exists, err := u.redisClient.Exists(ctx, refreshKey).Result()
	if err != nil {
		u.log.Errorf("Failed to check refresh token in redis: %+v", err)
		return nil, err
	}
	if exists == 0 {
		return nil, ErrTokenRevoked
	}

	user, err := u.userRepo.FindByID(u.db.WithContext(ctx), claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || (user.IsActive != nil && !*user.IsActive) {
		return nil, ErrInvalidCredentials
	}

	// Rotate: the used refresh token is gone before a new pair exists.
	if err := u.redisClient.Del(ctx, refreshKey).Err(); err != nil {
		u.log.Warnf("Failed to rotate refresh token: %+v", err)
	}

	return u.issueTokens(ctx, user)
}

func (u *authUsecase) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := u.userRepo.FindByID(u.db.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	resp := converter.UserToResponse(user)
	if user.RoleID == entity.RoleIDClinicAdmin {
		clinic, err := u.clinicRepo.FindByAdminID(u.db.WithContext(ctx), user.ID)
		if err != nil {
			return nil, err
		}
		resp.Clinic = converter.ClinicToResponse(clinic)
	}
	return resp, nil
}

// issueTokens generates the access/refresh pair and records both token IDs in
// redis with the matching expiries.
func (u *authUsecase) issueTokens(ctx context.Context, user *entity.User) (*dto.TokenResponse, error) {
	accessToken, accessTokenID, err := u.jwtService.GenerateAccessToken(user.ID, user.Email, user.RoleID)
	if err != nil {
		u.log.Errorf("Failed to generate access token: %+v", err)
		return nil, err
	}
	refreshToken, refreshTokenID, err := u.jwtService.GenerateRefreshToken(user.ID, user.Email, user.RoleID)
	if err != nil {
		u.log.Errorf("Failed to generate refresh token: %+v", err)
		return nil, err
	}

	accessKey := fmt.Sprintf("access_token:%s:%s", user.ID.String(), accessTokenID)
	if err := u.redisClient.Set(ctx, accessKey, "valid", u.jwtService.GetAccessExpiry()).Err(); err != nil {
		u.log.Errorf("Failed to store access token: %+v", err)
		return nil, err
	}
	refreshKey := fmt.Sprintf("refresh_token:%s:%s", user.ID.String(), refreshTokenID)
	if err := u.redisClient.Set(ctx, refreshKey, "valid", u.jwtService.GetRefreshExpiry()).Err(); err != nil {
		u.log.Errorf("Failed to store refresh token: %+v", err)
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(u.jwtService.GetAccessExpiry().Seconds()),
	}, nil
}

// withRoleName fills Role.RoleName for a freshly created user so the converter
// does not need a reload.
func withRoleName(user *entity.User) *entity.User {
	if user.Role.RoleName != "" {
		return user
	}
	switch user.RoleID {
	case entity.RoleIDSuperAdmin:
		user.Role.RoleName = entity.RoleSuperAdmin
	case entity.RoleIDClinicAdmin:
		user.Role.RoleName = entity.RoleClinicAdmin
	case entity.RoleIDDoctor:
		user.Role.RoleName = entity.RoleDoctor
	case entity.RoleIDSupportAdmin:
		user.Role.RoleName = entity.RoleSupportAdmin
	default:
		user.Role.RoleName = entity.RolePatient
	}
	return user
}

// isDuplicateKeyError detects a postgres unique violation (SQLSTATE 23505).
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// isForeignKeyError detects a postgres FK violation (SQLSTATE 23503).
func isForeignKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return errors.Is(err, gorm.ErrForeignKeyViolated)
}
