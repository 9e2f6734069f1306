package accounts

// Profile is the client-safe view of an account. It never carries password,
// challenge or session material.
type Profile struct {
	ID            string   `json:"id"`
	Email         string   `json:"email"`
	FullName      string   `json:"fullName"`
	StudentID     string   `json:"studentId"`
	Department    string   `json:"department"`
	Year          Year     `json:"year"`
	PhoneNumber   string   `json:"phoneNumber"`
	WalletBalance float64  `json:"walletBalance"`
	Provider      Provider `json:"provider"`
	EmailVerified bool     `json:"emailVerified"`
}

func (a *Account) Profile() Profile {
	return Profile{
		ID:            a.ID,
		Email:         a.Email,
		FullName:      a.FullName,
		StudentID:     a.StudentID,
		Department:    a.Department,
		Year:          a.Year,
		PhoneNumber:   a.PhoneNumber,
		WalletBalance: a.WalletBalance,
		Provider:      a.Provider,
		EmailVerified: a.EmailVerified,
	}
}
