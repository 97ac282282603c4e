package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/pkg/errors"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/assessment"
	"github.com/trezcool/academia/core/course"
	"github.com/trezcool/academia/core/notification"
	"github.com/trezcool/academia/core/sponsorship"
	"github.com/trezcool/academia/core/user"
	"github.com/trezcool/academia/tests"
)

func Test_assessmentAPI_createFanout(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	instructor := testutil.CreateUser(t, e.usrRepo, "instructor@test.cd", "instructor", user.RoleInstructor)
	alice := testutil.CreateUser(t, e.usrRepo, "alice@test.cd", "alice", user.RoleStudent)
	bob := testutil.CreateUser(t, e.usrRepo, "bob@test.cd", "bob", user.RoleStudent)
	outsider := testutil.CreateUser(t, e.usrRepo, "outsider@test.cd", "outsider", user.RoleStudent)
	goCourse := testutil.CreateCourse(t, e.courseRepo, instructor, "Go", course.Beginner)
	emptyCourse := testutil.CreateCourse(t, e.courseRepo, instructor, "Empty", course.Advanced)
	otherCourse := testutil.CreateCourse(t, e.courseRepo, instructor, "Other", course.Advanced)
	testutil.Enroll(t, e.enrollRepo, alice, goCourse, 0)
	testutil.Enroll(t, e.enrollRepo, bob, goCourse, 50)
	testutil.Enroll(t, e.enrollRepo, outsider, otherCourse, 50)
	token := e.token(t, instructor)

	newAssessment := func(courseID int64, title string) []byte {
		return marshallObj(t, assessment.NewAssessment{
			Course:      courseID,
			Title:       title,
			Description: "Write a worker pool",
			DueDate:     core.NewDate(2030, 1, 15),
		})
	}

	t.Run("emails every enrolled student", func(t *testing.T) {
		rec := e.serve(http.MethodPost, "/api/assessment", token, newAssessment(goCourse.ID, "Concurrency"))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var got struct {
			Result     string                `json:"result"`
			Assessment assessment.Assessment `json:"assessment"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "Email sent successfully", got.Result)
		assert.Equal(t, "Concurrency", got.Assessment.Title)
		assert.Equal(t, "Go", got.Assessment.CourseTitle)
		assert.Equal(t, "2030-01-15", got.Assessment.DueDate.String())

		sent := e.mailer.SentMessages()
		require.Len(t, sent, 2)
		recipients := []string{sent[0].To[0].Address, sent[1].To[0].Address}
		assert.ElementsMatch(t, []string{alice.Email, bob.Email}, recipients)
		for _, msg := range sent {
			assert.Equal(t, "New Assessment: Concurrency", msg.Subject)
			assert.Equal(t, "Please submit the assessment before 2030-01-15. More details: Write a worker pool", msg.TextContent)
		}

		for _, usr := range []user.User{alice, bob} {
			notifs, err := e.notifRepo.QueryNotifications(ctx, notification.QueryFilter{UserID: usr.ID})
			require.NoError(t, err)
			require.Len(t, notifs, 1)
			assert.Equal(t, "New Assessment: Concurrency - Write a worker pool", notifs[0].Message)
			assert.False(t, notifs[0].IsRead)
		}
		notifs, err := e.notifRepo.QueryNotifications(ctx, notification.QueryFilter{UserID: outsider.ID})
		require.NoError(t, err)
		assert.Empty(t, notifs)

		expected := `
# HELP academia_emails_sent_total Total number of fanout emails, by outcome
# TYPE academia_emails_sent_total counter
academia_emails_sent_total{event="assessment_created",outcome="sent"} 2
`
		assert.NoError(t, promtest.GatherAndCompare(e.registry, strings.NewReader(expected), "academia_emails_sent_total"))
	})

	t.Run("no students to email", func(t *testing.T) {
		e.mailer.Reset()
		rec := e.serve(http.MethodPost, "/api/assessment", token, newAssessment(emptyCourse.ID, "Lonely"))
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpResult{Result: "No students have email addresses"}),
		}, rec)
		assert.Empty(t, e.mailer.SentMessages())

		// the assessment is kept
		assessments, err := e.assessRepo.QueryAssessments(ctx, assessment.QueryFilter{CourseID: emptyCourse.ID})
		require.NoError(t, err)
		require.Len(t, assessments, 1)
		assert.Equal(t, "Lonely", assessments[0].Title)
	})

	t.Run("enrolled students have no email", func(t *testing.T) {
		e.mailer.Reset()
		mute := testutil.CreateUser(t, e.usrRepo, "", "mute", user.RoleStudent)
		muteCourse := testutil.CreateCourse(t, e.courseRepo, instructor, "Mute", course.Intermediate)
		testutil.Enroll(t, e.enrollRepo, mute, muteCourse, 0)

		rec := e.serve(http.MethodPost, "/api/assessment", token, newAssessment(muteCourse.ID, "Silent"))
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpResult{Result: "No students have email addresses"}),
		}, rec)
		assert.Empty(t, e.mailer.SentMessages())

		// the assessment and the in-app notification are kept
		assessments, err := e.assessRepo.QueryAssessments(ctx, assessment.QueryFilter{CourseID: muteCourse.ID})
		require.NoError(t, err)
		require.Len(t, assessments, 1)
		notifs, err := e.notifRepo.QueryNotifications(ctx, notification.QueryFilter{UserID: mute.ID})
		require.NoError(t, err)
		require.Len(t, notifs, 1)
		assert.Equal(t, "New Assessment: Silent - Write a worker pool", notifs[0].Message)
	})

	t.Run("transport failure", func(t *testing.T) {
		e.mailer.Reset()
		e.mailer.Err = errors.New("connection refused")
		defer func() { e.mailer.Err = nil }()

		rec := e.serve(http.MethodPost, "/api/assessment", token, newAssessment(goCourse.ID, "Channels"))
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusInternalServerError,
			wantData: marshallObj(t, httpResult{Result: "Error sending email: connection refused"}),
		}, rec)

		// the assessment and its notifications are kept
		assessments, err := e.assessRepo.QueryAssessments(ctx, assessment.QueryFilter{CourseID: goCourse.ID})
		require.NoError(t, err)
		assert.Len(t, assessments, 2)
		notifs, err := e.notifRepo.QueryNotifications(ctx, notification.QueryFilter{UserID: alice.ID})
		require.NoError(t, err)
		assert.Len(t, notifs, 2)
	})

	t.Run("validation runs before the fanout", func(t *testing.T) {
		e.mailer.Reset()
		tests := []httpTest{
			{
				name: "unknown course", method: http.MethodPost, path: "/api/assessment", token: token,
				body:     newAssessment(9999, "Ghost"),
				wantCode: http.StatusBadRequest, wantData: marshallObj(t, map[string]string{"course": `invalid pk "9999" - object does not exist`}),
			},
			{
				name: "missing due date", method: http.MethodPost, path: "/api/assessment", token: token,
				body:     []byte(`{"course": 1, "title": "t", "description": "d"}`),
				wantCode: http.StatusBadRequest, wantData: marshallObj(t, map[string]string{"due_date": core.RequiredFieldError}),
			},
		}
		runHTTPTests(t, e, tests)
		assert.Empty(t, e.mailer.SentMessages())
	})
}

func Test_sponsorshipAPI_createFanout(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	sponsor := testutil.CreateUser(t, e.usrRepo, "sponsor@test.cd", "sponsor", user.RoleSponsor)
	student := testutil.CreateUser(t, e.usrRepo, "student@test.cd", "student", user.RoleStudent)
	token := e.token(t, sponsor)

	body := func(amount string) []byte {
		return []byte(`{"sponsor": ` + jsonInt(sponsor.ID) + `, "student": ` + jsonInt(student.ID) + `, "amount": "` + amount + `"}`)
	}

	t.Run("thanks the sponsor", func(t *testing.T) {
		rec := e.serve(http.MethodPost, "/api/sponsorship/", token, body("150.5"))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var got struct {
			Result      string                  `json:"result"`
			Sponsorship sponsorship.Sponsorship `json:"sponsorship"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "Email sent successfully", got.Result)
		assert.True(t, decimal.RequireFromString("150.5").Equal(got.Sponsorship.Amount))
		assert.Equal(t, sponsor.Email, got.Sponsorship.SponsorEmail)
		assert.Equal(t, student.Email, got.Sponsorship.StudentEmail)

		sent := e.mailer.SentMessages()
		require.Len(t, sent, 1)
		assert.Equal(t, sponsor.Email, sent[0].To[0].Address)
		assert.Equal(t, "Sponsorship for : student@test.cd", sent[0].Subject)
		assert.Contains(t, sent[0].TextContent, "Thank you for sponsoring 150.50.")

		notifs, err := e.notifRepo.QueryNotifications(ctx, notification.QueryFilter{UserID: sponsor.ID})
		require.NoError(t, err)
		require.Len(t, notifs, 1)
		assert.Equal(t, "New Sponsorship: 150.50 - student@test.cd", notifs[0].Message)
	})

	t.Run("transport failure", func(t *testing.T) {
		e.mailer.Reset()
		e.mailer.Err = errors.New("quota exceeded")
		defer func() { e.mailer.Err = nil }()

		rec := e.serve(http.MethodPost, "/api/sponsorship", token, body("20"))
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusInternalServerError,
			wantData: marshallObj(t, httpResult{Result: "Error sending email: quota exceeded"}),
		}, rec)

		sponsorships, err := e.sponsorRepo.QuerySponsorships(ctx, sponsorship.QueryFilter{SponsorID: sponsor.ID})
		require.NoError(t, err)
		assert.Len(t, sponsorships, 2)
	})

	t.Run("invalid payloads", func(t *testing.T) {
		tests := []httpTest{
			{
				name: "negative amount", method: http.MethodPost, path: "/api/sponsorship", token: token, body: body("-1"),
				wantCode: http.StatusBadRequest, wantData: marshallObj(t, map[string]string{"amount": "ensure this value is greater than or equal to 0"}),
			},
			{
				name: "student is not a student", method: http.MethodPost, path: "/api/sponsorship", token: token,
				body:     []byte(`{"sponsor": ` + jsonInt(sponsor.ID) + `, "student": ` + jsonInt(sponsor.ID) + `, "amount": "1"}`),
				wantCode: http.StatusBadRequest,
			},
		}
		runHTTPTests(t, e, tests)
	})
}

func jsonInt(i int64) string {
	b, _ := json.Marshal(i)
	return string(b)
}
