package api

import "time"

// Auth Types
type LoginRequest struct {
	EmailOrUsername string `json:"email_or_username" validate:"required"`
	Password        string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Username        string `json:"username" validate:"required,username"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	FirstName       string `json:"first_name" validate:"required,max=30"`
	LastName        string `json:"last_name" validate:"required,max=30"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

type RegisterResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

type RefreshResponse struct {
	Access string `json:"access"`
	// Present when the backend rotates refresh tokens
	Refresh string `json:"refresh,omitempty"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type PasswordResetRequest struct {
	Username string `json:"username" validate:"required,max=150"`
}

type PasswordResetResponse struct {
	Message    string `json:"message"`
	ResetToken string `json:"reset_token"`
	ExpiresAt  string `json:"expires_at"`
	Username   string `json:"username"`
}

type PasswordResetConfirmRequest struct {
	Token              string `json:"token" validate:"required"`
	NewPassword        string `json:"new_password" validate:"required,min=8"`
	NewPasswordConfirm string `json:"new_password_confirm" validate:"required,eqfield=NewPassword"`
}

type ChangePasswordRequest struct {
	OldPassword        string `json:"old_password" validate:"required"`
	NewPassword        string `json:"new_password" validate:"required,min=8,nefield=OldPassword"`
	NewPasswordConfirm string `json:"new_password_confirm" validate:"required,eqfield=NewPassword"`
}

type EmailVerificationRequest struct {
	Token string `json:"token" validate:"required"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// MessageResponse is the generic {"message"} / {"status"} acknowledgement
type MessageResponse struct {
	Message string `json:"message,omitempty"`
	Status  string `json:"status,omitempty"`
}

// Text returns whichever acknowledgement field the backend filled in
func (m MessageResponse) Text() string {
	if m.Message != "" {
		return m.Message
	}
	return m.Status
}

// User Types
type Profile struct {
	Bio            string    `json:"bio"`
	AvatarURL      string    `json:"avatar_url"`
	Website        string    `json:"website"`
	Location       string    `json:"location"`
	Privacy        string    `json:"privacy"`
	FollowersCount int       `json:"followers_count"`
	FollowingCount int       `json:"following_count"`
	PostsCount     int       `json:"posts_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email,omitempty"`
	Role        string    `json:"role,omitempty"`
	IsVerified  bool      `json:"is_verified"`
	IsActive    *bool     `json:"is_active,omitempty"`
	IsAdmin     bool      `json:"is_admin"`
	IsFollowing bool      `json:"is_following"`
	FullName    string    `json:"full_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Profile     *Profile  `json:"profile,omitempty"`
}

// DisplayName returns "First Last", falling back to the username
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Username
	}
	return name
}

// UserBasic is the reduced user embedded in follows and notifications
type UserBasic struct {
	ID        string `json:"id,omitempty"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// DisplayName returns "First Last", falling back to the username
func (u UserBasic) DisplayName() string {
	return User{Username: u.Username, FirstName: u.FirstName, LastName: u.LastName}.DisplayName()
}

type Follow struct {
	ID        string    `json:"id"`
	Follower  UserBasic `json:"follower"`
	Following UserBasic `json:"following"`
	CreatedAt time.Time `json:"created_at"`
}

type FollowStatus struct {
	IsFollowing bool `json:"is_following"`
}

// Pagination is the normalized form of the backend's pagination block
type Pagination struct {
	CurrentPage int  `json:"current_page"`
	TotalPages  int  `json:"total_pages"`
	TotalItems  int  `json:"total_items"`
	PerPage     int  `json:"per_page"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

type UserPage struct {
	Users      []User     `json:"users"`
	Pagination Pagination `json:"pagination"`
}

type FollowPage struct {
	Follows    []Follow   `json:"follows"`
	Pagination Pagination `json:"pagination"`
}

// Settings Types
type SettingsUser struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
	Username  string `json:"username,omitempty"`
}

type SettingsProfile struct {
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatar_url"`
	Website   string `json:"website"`
	Location  string `json:"location"`
	Privacy   string `json:"privacy"`
}

type SettingsPreferences struct {
	EmailNotifications bool `json:"email_notifications"`
	PushNotifications  bool `json:"push_notifications"`
}

type Settings struct {
	User        SettingsUser        `json:"user"`
	Profile     SettingsProfile     `json:"profile"`
	Preferences SettingsPreferences `json:"preferences"`
}

// SettingsUpdate only carries the fields the caller changed
type SettingsUpdate struct {
	User    *UserFieldsUpdate    `json:"user,omitempty"`
	Profile *ProfileFieldsUpdate `json:"profile,omitempty"`
}

type UserFieldsUpdate struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=30"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=30"`
}

type ProfileFieldsUpdate struct {
	Bio      *string `json:"bio,omitempty" validate:"omitempty,max=160"`
	Website  *string `json:"website,omitempty" validate:"omitempty,http_url,max=200"`
	Location *string `json:"location,omitempty" validate:"omitempty,max=100"`
	Privacy  *string `json:"privacy,omitempty" validate:"omitempty,oneof=public private followers_only"`
}

type SettingsUpdateResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
}

type AvatarResponse struct {
	Message   string `json:"message"`
	AvatarURL string `json:"avatar_url"`
}

// Post Types
type Post struct {
	ID            string    `json:"id"`
	Content       string    `json:"content"`
	ImageURL      string    `json:"image_url"`
	Category      string    `json:"category"`
	Author        User      `json:"author"`
	IsActive      bool      `json:"is_active"`
	LikeCount     int       `json:"like_count"`
	CommentCount  int       `json:"comment_count"`
	IsLikedByUser bool      `json:"is_liked_by_user"`
	Comments      []Comment `json:"comments,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type PostPage struct {
	Posts      []Post     `json:"posts"`
	Pagination Pagination `json:"pagination"`
}

// PostCategories are the categories the backend accepts
var PostCategories = []string{"general", "announcement", "question"}

type CreatePostRequest struct {
	Content  string `json:"content" validate:"notblank,max=280"`
	ImageURL string `json:"image_url,omitempty" validate:"omitempty,http_url"`
	Category string `json:"category,omitempty" validate:"omitempty,oneof=general announcement question"`
	// ImagePath is uploaded as multipart "image" when set
	ImagePath string `json:"-" validate:"omitempty,file"`
}

type UpdatePostRequest struct {
	Content  string `json:"content" validate:"notblank,max=280"`
	ImageURL string `json:"image_url,omitempty" validate:"omitempty,http_url"`
	Category string `json:"category,omitempty" validate:"omitempty,oneof=general announcement question"`
	// ImagePath replaces the post image when set
	ImagePath string `json:"-" validate:"omitempty,file"`
}

type LikeStatus struct {
	PostID    string `json:"post_id"`
	IsLiked   bool   `json:"is_liked"`
	LikeCount int    `json:"like_count"`
}

// Comment Types
type Comment struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Author    User      `json:"author"`
	Post      *PostRef  `json:"post,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateCommentRequest struct {
	Content string `json:"content" validate:"notblank,max=200"`
}

// Notification Types
type NotificationType string

const (
	NotificationFollow  NotificationType = "follow"
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
)

type Notification struct {
	ID        string           `json:"id"`
	Sender    UserBasic        `json:"sender"`
	Type      NotificationType `json:"notification_type"`
	Message   string           `json:"message"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
	Post      *PostRef         `json:"post,omitempty"`
}

// RelatedPostID returns the post the notification points at, if any
func (n Notification) RelatedPostID() string {
	if n.Post == nil {
		return ""
	}
	return n.Post.ID
}

// NotificationList is a fetch result. UnreadCount comes from the
// X-Unread-Count header when the backend sends it, -1 otherwise.
type NotificationList struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
}

type NotificationPreferences struct {
	FollowNotifications  bool `json:"follow_notifications"`
	LikeNotifications    bool `json:"like_notifications"`
	CommentNotifications bool `json:"comment_notifications"`
	EmailNotifications   bool `json:"email_notifications"`
	PushNotifications    bool `json:"push_notifications"`
}

// Admin Types
type RoleUpdateRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

type BulkDeleteRequest struct {
	PostIDs []string `json:"post_ids" validate:"required,min=1,dive,uuid"`
}

type BulkDeleteResponse struct {
	Status       string `json:"status"`
	DeletedCount int    `json:"deleted_count"`
}

type AdminPostFilter struct {
	Author   string
	Content  string
	DateFrom string `validate:"omitempty,datetime=2006-01-02"`
	DateTo   string `validate:"omitempty,datetime=2006-01-02"`
	Page     int
}

type AdminCommentFilter struct {
	Post    string `validate:"omitempty,uuid"`
	Author  string
	Content string
}

type AdminStats struct {
	Users struct {
		Total       int `json:"total"`
		Active      int `json:"active"`
		Inactive    int `json:"inactive"`
		Admins      int `json:"admins"`
		Regular     int `json:"regular"`
		NewThisWeek int `json:"new_this_week"`
		ActiveToday int `json:"active_today"`
	} `json:"users"`
	Posts struct {
		Total     int `json:"total"`
		Today     int `json:"today"`
		Yesterday int `json:"yesterday"`
	} `json:"posts"`
	Date struct {
		Today     string `json:"today"`
		Yesterday string `json:"yesterday"`
	} `json:"date"`
}

type CreatorCount struct {
	Username     string `json:"author__username"`
	PostCount    int    `json:"post_count,omitempty"`
	CommentCount int    `json:"comment_count,omitempty"`
}

type ContentStats struct {
	Posts struct {
		Total     int `json:"total"`
		Today     int `json:"today"`
		Yesterday int `json:"yesterday"`
		ThisWeek  int `json:"this_week"`
	} `json:"posts"`
	Comments struct {
		Total     int `json:"total"`
		Today     int `json:"today"`
		Yesterday int `json:"yesterday"`
	} `json:"comments"`
	Likes struct {
		Total int `json:"total"`
		Today int `json:"today"`
	} `json:"likes"`
	TopCreators struct {
		Posters    []CreatorCount `json:"posters"`
		Commenters []CreatorCount `json:"commenters"`
	} `json:"top_creators"`
}

// ErrorResponse covers the error bodies the backend produces
type ErrorResponse struct {
	Error          string   `json:"error"`
	Message        string   `json:"message"`
	Detail         string   `json:"detail"`
	NonFieldErrors []string `json:"non_field_errors"`
}
