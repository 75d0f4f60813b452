package requests

// ProfileRequest lists the profile fields a user may change. Anything else
// in the body (username, email, password, userType) is dropped by decoding.
type ProfileRequest struct {
	Name         *string `json:"name"         validate:"omitempty,min=2,max=100"`
	Phone        *string `json:"phone"        validate:"omitempty,max=32"`
	Address      *string `json:"address"      validate:"omitempty,max=255"`
	City         *string `json:"city"         validate:"omitempty,max=100"`
	State        *string `json:"state"        validate:"omitempty,max=100"`
	Pincode      *string `json:"pincode"      validate:"omitempty,max=16"`
	About        *string `json:"about"        validate:"omitempty,max=2000"`
	ProfileImage *string `json:"profileImage" validate:"omitempty,max=512"`
}

// Fields returns the column updates for the fields present in the body.
func (r ProfileRequest) Fields() map[string]interface{} {
	fields := map[string]interface{}{}
	set := func(col string, v *string) {
		if v != nil {
			fields[col] = *v
		}
	}
	set("name", r.Name)
	set("phone", r.Phone)
	set("address", r.Address)
	set("city", r.City)
	set("state", r.State)
	set("pincode", r.Pincode)
	set("about", r.About)
	set("profile_image", r.ProfileImage)
	return fields
}
