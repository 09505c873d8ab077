package validation_test

import (
	"testing"

	"github.com/Captainsparrow404/neuvii-backend/internal"
	"github.com/Captainsparrow404/neuvii-backend/internal/core/common/validation"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestValidation(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Validation Suite")
}

var _ = Describe("ValidationBuilder", func() {
	It("returns nil when every rule passes", func() {
		v := validation.NewValidator()
		v.Field("name", "Ava").Required().MaxLength(50)
		v.Field("age", 6).Required().MinInt(1, internal.ErrCodeValidationFailed)
		Expect(v.Validate()).To(BeNil())
	})

	It("collects every failing field at once", func() {
		v := validation.NewValidator()
		v.Field("name", "").Required()
		v.Field("age", 0).Required()
		v.Field("email", "not-an-email").Email()

		err := v.Validate()
		Expect(err).NotTo(BeNil())
		Expect(err.Code).To(Equal(internal.ErrCodeValidationFailed))

		details, ok := err.Details.(internal.ValidationErrors)
		Expect(ok).To(BeTrue())
		Expect(details.Errors).To(HaveLen(3))
	})

	It("treats a nil pointer as missing", func() {
		var id *int64
		v := validation.NewValidator()
		v.Field("clinic_id", id).Required()
		Expect(v.Validate()).NotTo(BeNil())
	})

	It("accepts listed values only", func() {
		v := validation.NewValidator()
		v.Field("gender", "unknown").OneOf("gender must be male, female or other", "male", "female", "other")
		err := v.Validate()
		Expect(err).NotTo(BeNil())

		ok := validation.NewValidator()
		ok.Field("gender", "female").OneOf("gender must be male, female or other", "male", "female", "other")
		Expect(ok.Validate()).To(BeNil())
	})

	It("skips format checks on empty optional values", func() {
		v := validation.NewValidator()
		v.Field("email", "").Email()
		Expect(v.Validate()).To(BeNil())
	})
})
