package middleware

// rbacPolicy maps roles to capabilities (g) and capabilities to routes (p).
// Ownership rules such as "coordinates this club" stay in the services.
const rbacPolicy = `
g, faculty, authenticated
g, member, authenticated
g, student, authenticated
g, coordinator, authenticated
g, admin, authenticated

g, student, event_reader
g, member, event_reader
g, coordinator, event_reader

g, student, student_self

g, member, event_author
g, coordinator, event_author

g, member, event_staff
g, coordinator, event_staff
g, faculty, event_staff
g, admin, event_staff

g, member, attendance_marker
g, coordinator, attendance_marker

g, coordinator, event_approver
g, coordinator, od_approver

g, coordinator, club_manager
g, admin, club_manager

g, admin, administer

p, authenticated, /api/auth/profile, GET
p, authenticated, /api/profile/me, GET
p, authenticated, /api/profile, PUT

p, authenticated, /api/users, GET
p, authenticated, /api/users/coordinators, GET
p, administer, /api/users/all, GET
p, administer, /api/users, POST
p, administer, /api/users/:id, PUT
p, administer, /api/users/:id, DELETE

p, authenticated, /api/clubs, GET
p, authenticated, /api/clubs/:id, GET
p, administer, /api/clubs, POST
p, club_manager, /api/clubs/:id, PUT
p, administer, /api/clubs/:id, DELETE
p, administer, /api/clubs/:id/coordinators, POST
p, administer, /api/clubs/:id/coordinators/:coordinatorId, DELETE
p, club_manager, /api/clubs/:id/members, POST
p, club_manager, /api/clubs/:id/members/:memberId, DELETE

p, event_reader, /api/events, GET
p, event_author, /api/events, POST
p, student_self, /api/events/my-events, GET
p, event_approver, /api/events/pending-approvals, GET
p, authenticated, /api/events/club/:clubId, GET
p, authenticated, /api/events/:id, GET
p, event_author, /api/events/:id, PUT
p, event_author, /api/events/:id, DELETE
p, event_approver, /api/events/:id/status, PATCH
p, student_self, /api/events/:id/register, POST
p, student_self, /api/events/:id/unregister, POST
p, event_staff, /api/events/:id/registrations, GET
p, authenticated, /api/events/:id/like, POST
p, authenticated, /api/events/:id/view, POST
p, authenticated, /api/events/:id/comments, GET
p, authenticated, /api/events/:id/comments, POST
p, authenticated, /api/events/:id/comments/:commentId, PATCH
p, authenticated, /api/events/:id/comments/:commentId, DELETE
p, authenticated, /api/events/:id/comments/:commentId/replies, POST
p, authenticated, /api/events/:id/comments/:commentId/replies/:replyId, DELETE
p, event_author, /api/events/:id/qr, GET
p, event_author, /api/events/:id/qr/rotate, POST

p, student_self, /api/attendance/check-in, POST
p, attendance_marker, /api/attendance/:id/toggle, PATCH
p, od_approver, /api/attendance/:id/od, PATCH
p, od_approver, /api/attendance/od-requests, GET
p, student_self, /api/attendance/my-od-requests, GET
p, student_self, /api/attendance/:id/od-certificate, GET
p, attendance_marker, /api/attendance/event/:eventId/export, GET

p, authenticated, /api/announcements/active, GET
p, authenticated, /api/announcements, GET
p, administer, /api/announcements, POST
p, administer, /api/announcements/:id, PUT
p, administer, /api/announcements/:id, DELETE

p, authenticated, /api/upload/image, POST

p, administer, /api/admin/*, GET
p, administer, /api/admin/*, PATCH

p, student_self, /api/recommendations, GET
`
