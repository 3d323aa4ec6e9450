/*
Package handler provides HTTP handler functions for account registration and sign-in.

These endpoints are the token issuer side of the identity scheme: the signaling
handshake only ever consumes tokens minted here (or by anything else holding the same
signing secret).
*/
package handler

import (
	"net/http"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/crypto/bcrypt"

	"voicelink/internal/app/db"
	"voicelink/internal/pkg/auth/jwt"
	"voicelink/internal/pkg/errs"
	"voicelink/internal/pkg/logx"
	"voicelink/internal/pkg/req"
	"voicelink/internal/pkg/resp"
)

var usernameRegex = regexp.MustCompile(`^[a-z0-9_]{4,20}$`)

const maxDisplayNameRunes = 32

type RegisterInput struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

// HandleRegister processes the request to create a new account and signs the caller in.
func HandleRegister(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if alreadySignedIn(deps, r) {
			resp.RespondError(w, r, errs.NewError(errs.ErrAlreadyLoggedIn))
			return
		}

		var input RegisterInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if !usernameRegex.MatchString(input.Username) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidUsername))
			return
		}

		nameLen := utf8.RuneCountInString(input.DisplayName)
		if nameLen == 0 || nameLen > maxDisplayNameRunes {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidDisplayName))
			return
		}

		passwordLen := utf8.RuneCountInString(input.Password)
		if passwordLen < 6 || passwordLen > 50 {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidPassword))
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		var userID pgtype.UUID
		userID.Bytes = uuid.New()
		userID.Valid = true

		created, err := deps.Store.CreateUser(r.Context(), db.CreateUserParams{
			ID:           userID,
			Username:     input.Username,
			DisplayName:  input.DisplayName,
			PasswordHash: string(hashedPassword),
		})

		if err != nil {
			if db.IsUniqueViolation(err) {
				logx.Warn("registration conflict: username already exists", "username", input.Username)
				resp.RespondError(w, r, errs.NewError(errs.ErrUserAlreadyExists))
				return
			}

			logx.Error(err, "failed to create user in database")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if err := deps.Store.UpdateLastLogin(r.Context(), created.ID); err != nil {
			logx.Error(err, "register: failed to update last_login_at", "user_id", created.ID)
		}

		respondWithToken(deps, w, r, created)
	}
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin verifies account credentials and issues an identity token.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if alreadySignedIn(deps, r) {
			resp.RespondError(w, r, errs.NewError(errs.ErrAlreadyLoggedIn))
			return
		}

		var input LoginInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		dbUser, err := deps.Store.GetUserByUsername(r.Context(), input.Username)
		if err != nil {
			if db.IsNotFound(err) {
				logx.Warn("login: unknown username", "username", input.Username)
			} else {
				logx.Error(err, "login: user fetch failed", "username", input.Username)
			}
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(dbUser.PasswordHash), []byte(input.Password)); err != nil {
			logx.Warn("login: password mismatch", "username", input.Username)
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		if err := deps.Store.UpdateLastLogin(r.Context(), dbUser.ID); err != nil {
			logx.Error(err, "login: failed to update last_login_at", "user_id", dbUser.ID)
		}

		respondWithToken(deps, w, r, dbUser)
	}
}

// HandleLogout clears the identity cookie. The token itself stays valid until expiry;
// there is no server-side session to revoke.
func HandleLogout(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jwt.ClearAuthCookie(w, deps.Config.Environment != "development")
		resp.RespondSuccess(w, r, nil)
	}
}

// alreadySignedIn reports whether the request carries a currently valid identity token.
func alreadySignedIn(deps *AppDeps, r *http.Request) bool {
	token := jwt.TokenFromRequest(r)
	if token == "" {
		return false
	}

	_, err := jwt.VerifyToken(token, deps.Config.JWTSecret)
	return err == nil
}

// respondWithToken mints the identity token for the account, stores it in the auth
// cookie, and returns it in the response body for non-browser clients.
func respondWithToken(deps *AppDeps, w http.ResponseWriter, r *http.Request, account db.User) {
	userID := uuid.UUID(account.ID.Bytes).String()

	token, err := jwt.GenerateToken(userID, account.DisplayName, deps.Config.JWTSecret, jwt.IdentityExpiration)
	if err != nil {
		logx.Error(err, "failed to generate identity token", "user_id", userID)
		resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
		return
	}

	jwt.SetAuthCookie(w, token, deps.Config.Environment != "development", jwt.IdentityExpiration)

	resp.RespondSuccess(w, r, map[string]any{
		"token": token,
		"user": map[string]any{
			"id":          userID,
			"name":        account.DisplayName,
			"username":    account.Username,
			"lastLoginAt": time.Now().Format(time.RFC3339),
		},
	})
}
