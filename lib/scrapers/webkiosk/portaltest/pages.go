package portaltest

import (
	"fmt"
	"strings"
)

// LoginPage renders the portal's login form with `captcha` in the
// non-selectable cell next to the "Enter Captcha" label.
func LoginPage(captcha string) string {
	return fmt.Sprintf(`<html>
<head><title>#JUET WEBKIOSK</title></head>
<body>
<form name="LoginForm" method="post" action="CommonFiles/UserAction.jsp">
<table>
  <tr><td colspan="2"><font class="logo">Jaypee University of Engineering &amp; Technology, Guna</font></td></tr>
  <tr><td>Institute</td><td><select name="InstCode"><option value="JUET">JUET</option></select></td></tr>
  <tr><td>Member Type</td><td><select name="UserType"><option value="S">Student</option><option value="P">Parent</option></select></td></tr>
  <tr><td>Enrollment No.</td><td><input type="text" name="MemberCode"></td></tr>
  <tr><td>Date of Birth</td><td><input type="text" name="DATE1"></td></tr>
  <tr><td>Password</td><td><input type="password" name="Password"></td></tr>
  <tr>
    <td>Enter Captcha</td>
    <td><font class="noselect" style="font-size: 18px">%s</font></td>
    <td><input type="text" name="txtcap"></td>
  </tr>
  <tr><td colspan="2"><input type="submit" name="BTNSubmit" value="Submit"></td></tr>
</table>
</form>
</body>
</html>`, captcha)
}

const FramesetPage = `<html>
<head><title>#JUET WEBKIOSK</title></head>
<frameset rows="80,*">
  <frame name="banner" src="StudentBanner.jsp">
  <frameset cols="220,*">
    <frame name="menu" src="StudentMenu.jsp">
    <frame name="content" src="StudentDefault.jsp">
  </frameset>
</frameset>
</html>`

const LoginFailedPage = `<html>
<body>
<table><tr><td><font color="red">Invalid Password or Captcha, please try again.</font></td></tr></table>
<a href="../index.jsp">Login</a>
</body>
</html>`

const SessionTimeoutPage = `<html>
<body>
<p>Session Timeout. Please Login again to continue.</p>
<a href="../index.jsp" target="_top">Login</a>
</body>
</html>`

// PersonalInfoPage is long enough to pass as an authenticated page.
func PersonalInfoPage(enrollment string) string {
	return fmt.Sprintf(`<html>
<head><title>Personal Information</title></head>
<body>
<table id="personal" border="1" width="100%%">
  <tr><td>Enrollment No.</td><td>%s</td></tr>
  <tr><td>Student Name</td><td>ANANYA SHARMA</td></tr>
  <tr><td>Father's Name</td><td>RAJESH SHARMA</td></tr>
  <tr><td>Course</td><td>B.TECH COMPUTER SCIENCE AND ENGINEERING</td></tr>
  <tr><td>Semester</td><td>5</td></tr>
  <tr><td>Correspondence Address</td><td>A-B ROAD, RAGHOGARH, GUNA, MADHYA PRADESH</td></tr>
  <tr><td>Email</td><td>student@example.com</td></tr>
</table>
<p>%s</p>
</body>
</html>`, enrollment, strings.Repeat("&nbsp;", 20))
}

const AttendancePage = `<html>
<body>
<table id="table-1" border="1">
  <thead>
    <tr><td colspan="6"><b>Attendance Details</b></td></tr>
    <tr>
      <th>Sr. No.</th>
      <th>Subject</th>
      <th>Lecture+Tutorial(%)</th>
      <th>Lecture(%)</th>
      <th>Tutorial(%)</th>
      <th>Practical(%)</th>
    </tr>
  </thead>
  <tbody>
    <tr><td>1</td><td>DATA STRUCTURES - 18B11CI311</td><td>80</td><td>85</td><td>66</td><td>&nbsp;</td></tr>
    <tr><td>2</td><td>DATABASE SYSTEMS - 18B11CI312</td><td></td><td>70</td><td>60</td><td></td></tr>
    <tr><td>3</td><td>DATA STRUCTURES LAB - 18B17CI371</td><td></td><td></td><td></td><td>92.5</td></tr>
    <tr><td>4</td><td>ENGINEERING MATHEMATICS-I - 18B11MA111</td><td>NA</td><td>-</td><td>N/A</td><td>-</td></tr>
  </tbody>
</table>
</body>
</html>`

const MarksPage = `<html>
<body>
<table id="marks" border="1">
  <tr><th>Sr.No.</th><th>Subject</th><th>Exam</th><th>Max Marks</th><th>Marks Obtained</th><th>Grade</th></tr>
  <tr><td>1</td><td>DATA STRUCTURES - 18B11CI311</td><td>T1</td><td>20</td><td>17.5</td><td></td></tr>
  <tr><td>2</td><td>DATA STRUCTURES - 18B11CI311</td><td>T2</td><td>20</td><td>15</td><td></td></tr>
  <tr><td>3</td><td>DATABASE SYSTEMS - 18B11CI312</td><td>T1</td><td>20</td><td>Absent</td><td></td></tr>
</table>
</body>
</html>`

const PivotMarksPage = `<html>
<body>
<table border="1">
  <tr><th>Sr.No.</th><th>Subject</th><th>T1 (20)</th><th>T2 (20)</th><th>T3 (35)</th></tr>
  <tr><td>1.</td><td>DATA STRUCTURES - 18B11CI311</td><td>18</td><td>16</td><td>&nbsp;</td></tr>
  <tr><td>2.</td><td>DATABASE SYSTEMS - 18B11CI312</td><td>12.5</td><td></td><td>30</td></tr>
</table>
</body>
</html>`

const CGPAPage = `<html>
<body>
<table id="cgpa" border="1">
  <tr><th>Sem</th><th>Grade Points</th><th>Course Credit</th><th>Earned Credit</th><th>Points Secured</th><th>SGPA</th><th>CGPA</th></tr>
  <tr><td>1</td><td>200</td><td>24</td><td>24</td><td>192</td><td>8.0</td><td>8.0</td></tr>
  <tr><td>2</td><td>210</td><td>25</td><td>25</td><td>210</td><td>8.4</td><td>8.2</td></tr>
</table>
</body>
</html>`

const SubjectsPage = `<html>
<body>
<table border="1">
  <tr><th>Sr.No.</th><th>Subject Code</th><th>Subject Name</th><th>Credits</th><th>Type</th><th>Component</th></tr>
  <tr><td>1</td><td>18B11CI311</td><td>DATA STRUCTURES</td><td>4</td><td>Core</td><td>L T</td></tr>
  <tr><td>2</td><td>18B17CI371</td><td>DATA STRUCTURES LAB</td><td>1</td><td>Core</td><td>P</td></tr>
</table>
</body>
</html>`

const FacultyPage = `<html>
<body>
<table border="1">
  <tr><th>Sr.No.</th><th>Subject</th><th>Lecture Faculty</th><th>Tutorial Faculty</th><th>Practical Faculty</th></tr>
  <tr><td>1</td><td>DATA STRUCTURES - 18B11CI311</td><td>DR. MEERA JOSHI</td><td>DR. MEERA JOSHI</td><td>&nbsp;</td></tr>
  <tr><td>2</td><td>DATA STRUCTURES LAB - 18B17CI371</td><td></td><td></td><td>MR. ARUN KUMAR</td></tr>
</table>
</body>
</html>`

const DisciplinaryPage = `<html>
<body>
<table border="1">
  <tr><th>Sr.No.</th><th>Date</th><th>Reason</th><th>Action Taken</th><th>Remarks</th></tr>
  <tr><td>1</td><td>12-03-2024</td><td>Late%20submission%20of%20lab%20record</td><td>Warning</td><td>-</td></tr>
</table>
</body>
</html>`

// EmptyDisciplinaryPage has the table but no data rows.
const EmptyDisciplinaryPage = `<html>
<body>
<table border="1">
  <tr><th>Sr.No.</th><th>Date</th><th>Reason</th><th>Action Taken</th><th>Remarks</th></tr>
</table>
</body>
</html>`

const SeatingPage = `<html>
<body>
<table border="1">
  <tr><th>Sr.No.</th><th>Date</th><th>Time</th><th>Subject</th><th>Room</th><th>Seat No.</th></tr>
  <tr><td>1</td><td>20-11-2024</td><td>09:00 AM</td><td>DATA STRUCTURES - 18B11CI311</td><td>LT-1</td><td>A-17</td></tr>
</table>
</body>
</html>`

const NoTablePage = `<html><body><p>No records found for the current semester.</p></body></html>`
