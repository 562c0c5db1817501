// Package validation turns raw request bodies and query values into checked
// inputs. Every parser reports only the first violation it finds, as a
// ValidationError whose Message is safe to show to the caller.
package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/valyala/fastjson"

	"familyconnect/internal/models"
)

// MaxLimit caps ?limit on check-in listings
const MaxLimit = 100

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return ValidationError{Field: field, Message: message}
}

// LoginInput holds checked credentials. Username is trimmed, password is not.
type LoginInput struct {
	Username string
	Password string
}

// StatusInput is a checked status update body
type StatusInput struct {
	Status       string
	BatteryLevel *int
}

// LocationInput is a checked location body
type LocationInput struct {
	Latitude  string
	Longitude string
	Address   *string
}

// CheckInInput is a checked check-in body
type CheckInInput struct {
	Message *string
	Mood    string
}

// ValidateLogin checks credentials coming from either a JSON or a form body
func ValidateLogin(username, password string) (LoginInput, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return LoginInput{}, invalid("username", "Username is required")
	}
	if password == "" {
		return LoginInput{}, invalid("password", "Password is required")
	}
	return LoginInput{Username: username, Password: password}, nil
}

// ParseLogin parses a JSON login body
func ParseLogin(p *fastjson.Parser, body []byte) (LoginInput, error) {
	obj, err := parseObject(p, body)
	if err != nil {
		return LoginInput{}, err
	}

	username, err := requiredString(obj, "username", "Username is required")
	if err != nil {
		return LoginInput{}, err
	}
	password, err := requiredString(obj, "password", "Password is required")
	if err != nil {
		return LoginInput{}, err
	}
	return ValidateLogin(username, password)
}

// ParseStatusUpdate parses a status body. Status defaults to ok.
func ParseStatusUpdate(p *fastjson.Parser, body []byte) (StatusInput, error) {
	obj, err := parseObject(p, body)
	if err != nil {
		return StatusInput{}, err
	}

	input := StatusInput{Status: models.StatusOK}

	status, err := optionalString(obj, "status")
	if err != nil {
		return StatusInput{}, err
	}
	if status != nil {
		switch *status {
		case models.StatusOK, models.StatusEmergency:
			input.Status = *status
		default:
			return StatusInput{}, invalid("status", "status must be one of: ok, emergency")
		}
	}

	if v := obj.Get("batteryLevel"); v != nil && v.Type() != fastjson.TypeNull {
		if v.Type() != fastjson.TypeNumber {
			return StatusInput{}, invalid("batteryLevel", "batteryLevel must be a number")
		}
		f, _ := v.Float64()
		if f != math.Trunc(f) || f < 0 || f > 100 {
			return StatusInput{}, invalid("batteryLevel", "batteryLevel must be an integer between 0 and 100")
		}
		level := int(f)
		input.BatteryLevel = &level
	}

	return input, nil
}

// ParseLocation parses a location body. Coordinates stay the decimal strings the client sent.
func ParseLocation(p *fastjson.Parser, body []byte) (LocationInput, error) {
	obj, err := parseObject(p, body)
	if err != nil {
		return LocationInput{}, err
	}

	latitude, err := coordinate(obj, "latitude", 90)
	if err != nil {
		return LocationInput{}, err
	}
	longitude, err := coordinate(obj, "longitude", 180)
	if err != nil {
		return LocationInput{}, err
	}
	address, err := optionalString(obj, "address")
	if err != nil {
		return LocationInput{}, err
	}

	return LocationInput{Latitude: latitude, Longitude: longitude, Address: address}, nil
}

// ParseCheckIn parses a check-in body. Mood defaults to good, message to null.
func ParseCheckIn(p *fastjson.Parser, body []byte) (CheckInInput, error) {
	obj, err := parseObject(p, body)
	if err != nil {
		return CheckInInput{}, err
	}

	message, err := optionalString(obj, "message")
	if err != nil {
		return CheckInInput{}, err
	}

	input := CheckInInput{Message: message, Mood: models.MoodGood}

	mood, err := optionalString(obj, "mood")
	if err != nil {
		return CheckInInput{}, err
	}
	if mood != nil {
		switch *mood {
		case models.MoodGood, models.MoodOkay, models.MoodNotGreat:
			input.Mood = *mood
		default:
			return CheckInInput{}, invalid("mood", "mood must be one of: good, okay, not_great")
		}
	}

	return input, nil
}

// ParseLimit reads ?limit. An empty value yields 0, which stores treat as their default.
func ParseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > MaxLimit {
		return 0, invalid("limit", fmt.Sprintf("limit must be an integer between 1 and %d", MaxLimit))
	}
	return limit, nil
}

// ParseFamilyMemberID reads the {id} path segment
func ParseFamilyMemberID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, invalid("id", "Invalid family member ID")
	}
	return id, nil
}

func parseObject(p *fastjson.Parser, body []byte) (*fastjson.Object, error) {
	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, invalid("body", "Malformed JSON")
	}
	obj, err := v.Object()
	if err != nil {
		return nil, invalid("body", "Request body must be a JSON object")
	}
	return obj, nil
}

func requiredString(obj *fastjson.Object, field, missing string) (string, error) {
	v := obj.Get(field)
	if v == nil || v.Type() == fastjson.TypeNull {
		return "", invalid(field, missing)
	}
	if v.Type() != fastjson.TypeString {
		return "", invalid(field, field+" must be a string")
	}
	return string(v.GetStringBytes()), nil
}

func optionalString(obj *fastjson.Object, field string) (*string, error) {
	v := obj.Get(field)
	if v == nil || v.Type() == fastjson.TypeNull {
		return nil, nil
	}
	if v.Type() != fastjson.TypeString {
		return nil, invalid(field, field+" must be a string")
	}
	s := string(v.GetStringBytes())
	return &s, nil
}

func coordinate(obj *fastjson.Object, field string, bound float64) (string, error) {
	raw, err := requiredString(obj, field, field+" is required")
	if err != nil {
		return "", err
	}
	raw = strings.TrimSpace(raw)
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < -bound || f > bound {
		return "", invalid(field, fmt.Sprintf("%s must be a decimal between -%g and %g", field, bound, bound))
	}
	return raw, nil
}
